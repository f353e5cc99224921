package scoring

import (
	"time"

	"github.com/homescore/homescore-cli/internal/model"
)

// RoundToNearest5 rounds to the nearest multiple of 5, half-up.
func RoundToNearest5(n int) int {
	return (n + 2) / 5 * 5
}

// Score runs every axis scorer over one listing and aggregates the
// composite: the six scored axes summed, rounded to the nearest multiple of
// 5, then tier-classified. Floor and area are computed for display only and
// excluded from the total by construction.
func Score(l *model.Listing, cfg *Config) *model.CompositeScore {
	axes := map[model.Axis]model.AxisScore{
		model.AxisLocation: ScoreLocation(l, cfg),
		model.AxisPrice:    ScorePrice(l, cfg),
		model.AxisStyle:    ScoreStyle(l, cfg),
		model.AxisExposure: ScoreExposure(l, cfg),
		model.AxisKitchen:  ScoreKitchen(l, cfg),
		model.AxisBathroom: ScoreBathroom(l, cfg),
		model.AxisFloor:    ScoreFloor(l, cfg),
		model.AxisArea:     ScoreArea(l, cfg),
	}

	total := 0
	for _, axis := range model.ScoredAxes() {
		total += axes[axis].Score
	}
	total = RoundToNearest5(total)

	// Bonus/malus tables exist in the config but are reserved: their
	// contribution stays zero.
	return &model.CompositeScore{
		ListingID: l.ID,
		Total:     total,
		Tier:      model.GlobalTier(total),
		Axes:      axes,
		Bonus:     0,
		Malus:     0,
		ScoredAt:  time.Now().UTC(),
	}
}
