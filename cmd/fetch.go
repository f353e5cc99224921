package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/internal/store"
	"github.com/homescore/homescore-cli/pkg/jinka"
)

var (
	fetchAlert    string
	fetchMaxPages int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch listings from the alert feed into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if cfg.Jinka.Token == "" {
			return eris.New("jinka API token is required (HOMESCORE_JINKA_TOKEN)")
		}
		client := jinka.NewClient(cfg.Jinka.Token, jinka.WithBaseURL(cfg.Jinka.BaseURL))

		alertIDs := []string{fetchAlert}
		if fetchAlert == "" {
			alerts, err := client.ListAlerts(ctx)
			if err != nil {
				return eris.Wrap(err, "list alerts")
			}
			alertIDs = alertIDs[:0]
			for _, a := range alerts {
				alertIDs = append(alertIDs, a.ID)
			}
			zap.L().Info("fetching all alerts", zap.Int("alerts", len(alertIDs)))
		}

		saved := 0
		for _, alertID := range alertIDs {
			n, err := fetchAlertListings(ctx, st, client, alertID)
			if err != nil {
				return err
			}
			saved += n
		}

		zap.L().Info("fetch complete", zap.Int("listings", saved))
		return nil
	},
}

func fetchAlertListings(ctx context.Context, st store.Store, client jinka.Client, alertID string) (int, error) {
	saved := 0

	for page := 1; page <= fetchMaxPages; page++ {
		res, err := client.ListApartments(ctx, alertID, jinka.WithPage(page))
		if err != nil {
			return saved, eris.Wrapf(err, "list apartments alert %s page %d", alertID, page)
		}

		for _, apt := range res.Apartments {
			l := listingFromApartment(apt)
			if err := st.SaveListing(ctx, l); err != nil {
				return saved, err
			}
			saved++
		}

		zap.L().Debug("page fetched",
			zap.String("alert", alertID),
			zap.Int("page", page),
			zap.Int("apartments", len(res.Apartments)),
		)
		if page >= res.TotalPages || len(res.Apartments) == 0 {
			break
		}
	}
	return saved, nil
}

func listingFromApartment(apt jinka.Apartment) *model.Listing {
	photos := make([]model.Photo, 0, len(apt.Images))
	for _, img := range apt.Images {
		photos = append(photos, model.Photo{URL: img})
	}
	id := apt.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &model.Listing{
		ID:              id,
		URL:             apt.URL,
		Title:           apt.Title,
		Description:     apt.Description,
		Characteristics: apt.Features,
		Price:           apt.Price,
		Area:            apt.Area,
		Floor:           apt.Floor,
		Rooms:           apt.Rooms,
		Neighborhood:    apt.Neighborhood,
		Stations:        apt.Stations,
		Photos:          photos,
		ScrapedAt:       time.Now().UTC(),
	}
}

func init() {
	fetchCmd.Flags().StringVar(&fetchAlert, "alert", "", "fetch a single alert by ID (default: all alerts)")
	fetchCmd.Flags().IntVar(&fetchMaxPages, "max-pages", 10, "maximum pages to fetch per alert")
	rootCmd.AddCommand(fetchCmd)
}
