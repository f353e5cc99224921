// Package scoring implements the per-axis scorers and the composite
// aggregator, driven by an external scoring configuration document.
package scoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/homescore/homescore-cli/internal/model"
)

// TierDef is one tier of one axis: a fixed point value plus the matching
// predicate's parameters (whichever the axis uses).
type TierDef struct {
	Score    int      `json:"score" yaml:"score"`
	Zones    []string `json:"zones,omitempty" yaml:"zones,omitempty"`
	Styles   []string `json:"styles,omitempty" yaml:"styles,omitempty"`
	MinPerM2 int      `json:"min_per_m2,omitempty" yaml:"min_per_m2,omitempty"`
	MaxPerM2 int      `json:"max_per_m2,omitempty" yaml:"max_per_m2,omitempty"`
	MinArea  int      `json:"min_area,omitempty" yaml:"min_area,omitempty"`
	MaxArea  int      `json:"max_area,omitempty" yaml:"max_area,omitempty"`
}

// AxisConfig holds the tier table for one axis.
type AxisConfig struct {
	Tiers map[model.Tier]TierDef `json:"tiers" yaml:"tiers"`
}

// Config is the scoring configuration document. It is treated as immutable
// input: the scorers never mutate it.
//
// Bonus and Malus tables are parsed and kept but the aggregator applies
// neither; their contribution is hard-coded to zero (reserved, intentionally
// disabled). The one exception is the flagship-plaza entry, which the
// location scorer adds within its own axis.
type Config struct {
	Axes  map[model.Axis]AxisConfig `json:"axes" yaml:"axes"`
	Bonus map[string]int            `json:"bonus,omitempty" yaml:"bonus,omitempty"`
	Malus map[string]int            `json:"malus,omitempty" yaml:"malus,omitempty"`
}

// Load reads and validates the scoring configuration, JSON or YAML by file
// extension. A missing or corrupt file is fatal for the batch: tier
// thresholds are required for every axis.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "scoring: read config")
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, eris.Wrap(err, "scoring: parse config")
		}
	default:
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, eris.Wrap(err, "scoring: parse config")
		}
	}
	for _, axis := range model.ScoredAxes() {
		if _, ok := cfg.Axes[axis]; !ok {
			return nil, eris.Errorf("scoring: config missing axis %q", axis)
		}
	}
	return &cfg, nil
}

// tierScore looks up one tier's point value, 0 when undefined.
func (c *Config) tierScore(axis model.Axis, tier model.Tier) int {
	return c.Axes[axis].Tiers[tier].Score
}

// Default returns the built-in scoring configuration. The six scored axis
// maxima sum to 100.
func Default() *Config {
	return &Config{
		Axes: map[model.Axis]AxisConfig{
			model.AxisLocation: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 20, Zones: []string{
					"place de la réunion", "charonne", "jourdain", "buttes-chaumont", "gambetta",
				}},
				model.Tier2: {Score: 10, Zones: []string{
					"belleville", "ménilmontant", "pyrénées", "pelleport", "place des fêtes",
				}},
				model.Tier3: {Score: 0},
			}},
			model.AxisPrice: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 20, MaxPerM2: 9500},
				model.Tier2: {Score: 10, MinPerM2: 9500, MaxPerM2: 11000},
				model.Tier3: {Score: 0},
			}},
			model.AxisStyle: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 20, Styles: []string{"haussmannien", "ancien"}},
				model.Tier2: {Score: 10, Styles: []string{"atypique", "loft"}},
				model.Tier3: {Score: 0},
			}},
			model.AxisExposure: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 20},
				model.Tier2: {Score: 10},
				model.Tier3: {Score: 0},
			}},
			model.AxisKitchen: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 10},
				model.Tier2: {Score: 5},
				model.Tier3: {Score: 0},
			}},
			model.AxisBathroom: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 10},
				model.Tier2: {Score: 5},
				model.Tier3: {Score: 0},
			}},
			model.AxisFloor: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 10},
				model.Tier2: {Score: 5},
				model.Tier3: {Score: 0},
			}},
			model.AxisArea: {Tiers: map[model.Tier]TierDef{
				model.Tier1: {Score: 10, MinArea: 80},
				model.Tier2: {Score: 5, MinArea: 65, MaxArea: 80},
				model.Tier3: {Score: 0},
			}},
		},
		Bonus: map[string]int{
			"place_reunion": 5,
			"balcon":        3,
			"terrasse":      5,
			"ascenseur":     2,
			"parking":       3,
			"cave":          2,
			"vue_degagee":   3,
		},
		Malus: map[string]int{
			"vis_a_vis": -5,
			"nord":      -5,
			"rdc":       -5,
		},
	}
}
