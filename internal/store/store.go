package store

import (
	"context"

	"github.com/homescore/homescore-cli/internal/model"
)

// ListingFilter specifies criteria for listing queries.
type ListingFilter struct {
	Neighborhood string `json:"neighborhood,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scoring pipeline.
type Store interface {
	// Listings
	SaveListing(ctx context.Context, listing *model.Listing) error
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error)
	SaveAnnotations(ctx context.Context, listingID string, ann *model.Annotations) error

	// Scores
	SaveScore(ctx context.Context, score *model.CompositeScore) error
	GetScore(ctx context.Context, listingID string) (*model.CompositeScore, error)
	ListScores(ctx context.Context, limit int) ([]model.CompositeScore, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
