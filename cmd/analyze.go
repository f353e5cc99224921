package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/internal/pipeline"
	"github.com/homescore/homescore-cli/internal/store"
)

var (
	analyzeID    string
	analyzeLimit int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run text and photo analysis over stored listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sigCache := initCache()
		defer sigCache.Flush()

		analyzer, err := initAnalyzer(sigCache)
		if err != nil {
			return err
		}

		listings, err := loadListings(cmd, st, analyzeID, analyzeLimit)
		if err != nil {
			return err
		}

		p := pipeline.New(st, analyzer)
		sum := p.EnrichAll(ctx, listings)

		zap.L().Info("analysis complete",
			zap.Int("analyzed", sum.Analyzed),
			zap.Int("failed", sum.Failed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	},
}

func loadListings(cmd *cobra.Command, st store.Store, id string, limit int) ([]model.Listing, error) {
	ctx := cmd.Context()
	if id != "" {
		l, err := st.GetListing(ctx, id)
		if err != nil {
			return nil, eris.Wrapf(err, "load listing %s", id)
		}
		return []model.Listing{*l}, nil
	}

	listings, err := st.ListListings(ctx, store.ListingFilter{Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "load listings")
	}
	if len(listings) == 0 {
		return nil, eris.New("no listings in store; run fetch first")
	}
	return listings, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeID, "id", "", "analyze a single listing by ID")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 100, "maximum listings to analyze")
	rootCmd.AddCommand(analyzeCmd)
}
