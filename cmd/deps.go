package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/homescore/homescore-cli/internal/cache"
	"github.com/homescore/homescore-cli/internal/classifier"
	"github.com/homescore/homescore-cli/internal/store"
	"github.com/homescore/homescore-cli/pkg/vision"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "homescore.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initCache() *cache.Cache {
	return cache.New(cfg.Cache.Path, time.Duration(cfg.Cache.TTLDays)*24*time.Hour)
}

func initAnalyzer(c *cache.Cache) (*classifier.Analyzer, error) {
	if cfg.Vision.Key == "" {
		return nil, eris.New("vision API key is required (HOMESCORE_VISION_KEY)")
	}

	var temp *float64
	if cfg.Vision.Temperature > 0 {
		t := cfg.Vision.Temperature
		temp = &t
	}

	return classifier.New(vision.NewClient(cfg.Vision.Key), c, classifier.Options{
		Model:             cfg.Vision.Model,
		TextTimeout:       time.Duration(cfg.Vision.TextTimeoutSecs) * time.Second,
		PhotoTimeout:      time.Duration(cfg.Vision.PhotoTimeoutSecs) * time.Second,
		RequestsPerMinute: cfg.Vision.RequestsPerMinute,
		Temperature:       temp,
		PhotoWorkers:      cfg.Analyze.PhotoWorkers,
	}), nil
}
