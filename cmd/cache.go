package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the signal cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache entry counts by analysis kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCache := initCache()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sigCache.Stats())
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached signal",
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCache := initCache()
		before := sigCache.Stats().TotalEntries
		sigCache.Clear()

		zap.L().Info("cache cleared", zap.Int("removed", before))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
