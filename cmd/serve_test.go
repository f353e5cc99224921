package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/internal/store"
)

func newServeStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedScored(t *testing.T, st store.Store, id string, total int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SaveListing(ctx, &model.Listing{
		ID:        id,
		Title:     "Appartement " + id,
		ScrapedAt: time.Now().UTC(),
	}))
	require.NoError(t, st.SaveScore(ctx, &model.CompositeScore{
		ListingID: id,
		Total:     total,
		Tier:      model.GlobalTier(total),
		ScoredAt:  time.Now().UTC(),
	}))
}

func TestServeHealth(t *testing.T) {
	srv := httptest.NewServer(newRouter(newServeStore(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeScoresRanked(t *testing.T) {
	st := newServeStore(t)
	seedScored(t, st, "apt-low", 40)
	seedScored(t, st, "apt-high", 85)

	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var scores []model.CompositeScore
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scores))
	require.Len(t, scores, 2)
	assert.Equal(t, "apt-high", scores[0].ListingID)
	assert.Equal(t, model.Tier1, scores[0].Tier)
}

func TestServeScoresBadLimit(t *testing.T) {
	srv := httptest.NewServer(newRouter(newServeStore(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scores?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeListingAndScore(t *testing.T) {
	st := newServeStore(t)
	seedScored(t, st, "apt-1", 60)

	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/listings/apt-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var l model.Listing
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Equal(t, "Appartement apt-1", l.Title)

	resp2, err := http.Get(srv.URL + "/api/listings/apt-1/score")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	missing, err := http.Get(srv.URL + "/api/listings/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
