package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/pipeline"
	"github.com/homescore/homescore-cli/internal/scoring"
)

var (
	scoreID     string
	scoreLimit  int
	scoreAsJSON bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score stored listings and print the ranking",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		// A broken rules document must halt the run, never silently score
		// against defaults.
		rules, err := scoring.Load(cfg.Scoring.Path)
		if err != nil {
			return eris.Wrapf(err, "load scoring rules %s", cfg.Scoring.Path)
		}

		listings, err := loadListings(cmd, st, scoreID, scoreLimit)
		if err != nil {
			return err
		}

		p := pipeline.New(st, nil)
		sum := p.ScoreAll(ctx, listings, rules)

		zap.L().Info("scoring complete",
			zap.Int("scored", sum.Scored),
			zap.Int("failed", sum.Failed),
		)

		ranked, err := st.ListScores(ctx, scoreLimit)
		if err != nil {
			return eris.Wrap(err, "list scores")
		}

		if scoreAsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ranked)
		}

		for i, sc := range ranked {
			fmt.Printf("%2d. %-24s %3d/100  %s\n", i+1, sc.ListingID, sc.Total, sc.Tier)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreID, "id", "", "score a single listing by ID")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 100, "maximum listings to score")
	scoreCmd.Flags().BoolVar(&scoreAsJSON, "json", false, "print the ranking as JSON")
	rootCmd.AddCommand(scoreCmd)
}
