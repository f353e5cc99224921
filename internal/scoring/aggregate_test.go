package scoring

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore-cli/internal/model"
)

func writeConfig(t *testing.T, path string, cfg *Config) error {
	t.Helper()
	raw, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	return os.WriteFile(path, raw, 0o644)
}

func TestRoundToNearest5(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {1, 0}, {2, 0}, {3, 5}, {4, 5}, {5, 5},
		{72, 70}, {73, 75}, {77, 75}, {78, 80}, {100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundToNearest5(tt.in), "in=%d", tt.in)
	}
}

// The rounded total is always a multiple of 5, never more than 2 away from
// the raw sum.
func TestRoundingInvariant(t *testing.T) {
	for s := 0; s <= 100; s++ {
		total := RoundToNearest5(s)
		assert.Zero(t, total%5, "s=%d", s)
		diff := total - s
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 2, "s=%d", s)
	}
}

// fullListing scores well on every axis under the default config.
func fullListing() *model.Listing {
	return &model.Listing{
		ID:              "apt-1",
		Title:           "Bel appartement haussmannien",
		Description:     "Très lumineux, proche Jourdain",
		Characteristics: "ascenseur, baignoire",
		Price:           "720 000 €",
		Area:            "80 m²",
		Floor:           "4e étage",
		Neighborhood:    "Jourdain",
		Annotations: &model.Annotations{
			Style: &model.AttributeAnalysis{
				Kind: model.KindStyle, Final: model.Signal{Type: "haussmannien", Confidence: 0.9},
				Status: model.ValidationValidated, SubjectSeen: true, PhotosAnalyzed: 3,
			},
			Exposure: &model.AttributeAnalysis{
				Kind: model.KindExposure, Final: model.Signal{Type: "excellent", Confidence: 0.8},
				Status: model.ValidationValidated, SubjectSeen: true, PhotosAnalyzed: 3,
			},
			Kitchen:  validatedPresence(model.KindKitchen, "yes", 0.9),
			Bathroom: validatedPresence(model.KindBathroom, "yes", 0.8),
		},
	}
}

func TestScoreComposite(t *testing.T) {
	cfg := Default()

	got := Score(fullListing(), cfg)
	// 20 + 20 + 20 + 20 + 10 + 10 = 100.
	assert.Equal(t, 100, got.Total)
	assert.Equal(t, model.Tier1, got.Tier)
	assert.Equal(t, "apt-1", got.ListingID)
	assert.Len(t, got.Axes, 8)
	assert.Zero(t, got.Bonus)
	assert.Zero(t, got.Malus)
}

// Floor and area are computed but never contribute to the total.
func TestInformationalAxesExcluded(t *testing.T) {
	cfg := Default()
	l := fullListing()

	withFloor := Score(l, cfg)
	l.Floor = "RDC"
	l.Area = "40 m²"
	withoutFloor := Score(l, cfg)

	assert.Equal(t, withFloor.Total, withoutFloor.Total)
	assert.NotEqual(t, withFloor.Axes[model.AxisFloor].Tier, withoutFloor.Axes[model.AxisFloor].Tier)
}

func TestSeventySevenRoundsToSeventyFive(t *testing.T) {
	// A config with a non-multiple-of-5 tier value exercises the rounding
	// path: axes sum to 77, the composite lands on 75, tier2.
	cfg := Default()
	loc := cfg.Axes[model.AxisLocation]
	tier1 := loc.Tiers[model.Tier1]
	tier1.Score = 17
	loc.Tiers[model.Tier1] = tier1
	cfg.Axes[model.AxisLocation] = loc
	delete(cfg.Bonus, "place_reunion")

	l := &model.Listing{
		ID:           "apt-77",
		Price:        "752 000 €", // 9400/m² → tier1 (20)
		Area:         "80 m²",
		Neighborhood: "Jourdain", // tier1 (17)
		Annotations: &model.Annotations{
			Style: &model.AttributeAnalysis{ // tier1 (20)
				Kind: model.KindStyle, Final: model.Signal{Type: "haussmannien", Confidence: 0.9},
				Status: model.ValidationValidated, SubjectSeen: true, PhotosAnalyzed: 2,
			},
			Exposure: &model.AttributeAnalysis{ // tier1 (20)
				Kind: model.KindExposure, Final: model.Signal{Type: "excellent", Confidence: 0.8},
				Status: model.ValidationValidated, SubjectSeen: true, PhotosAnalyzed: 2,
			},
			Kitchen:  validatedPresence(model.KindKitchen, "no", 0.9), // tier3 (0)
			Bathroom: validatedPresence(model.KindBathroom, "no", 0.9), // tier3 (0)
		},
	}

	got := Score(l, cfg)
	assert.Equal(t, 75, got.Total)
	assert.Equal(t, model.Tier2, got.Tier)
}

// Scoring is a pure function of the listing and config: two runs agree on
// everything except the timestamp.
func TestScoreIdempotent(t *testing.T) {
	cfg := Default()
	l := fullListing()

	first := Score(l, cfg)
	second := Score(l, cfg)

	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Tier, second.Tier)
	assert.Equal(t, first.Axes, second.Axes)
}

// An empty listing still scores: every axis takes its data-absent branch.
func TestScoreEmptyListing(t *testing.T) {
	cfg := Default()

	got := Score(&model.Listing{ID: "empty"}, cfg)
	// location 0 + price 0 + style 0 + exposure 10 + kitchen 5 + bathroom 5.
	assert.Equal(t, 20, got.Total)
	assert.Equal(t, model.Tier3, got.Tier)
}
