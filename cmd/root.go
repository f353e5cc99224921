package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "homescore",
	Short: "Apartment listing scoring pipeline",
	Long:  "Fetches apartment listings, fuses text and photo signals via a vision classifier, and ranks listings on a 0-100 composite score.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
