package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/homescore/homescore-cli/internal/crossval"
	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/internal/textsignal"
)

// Every scorer is pure and total: missing or unparseable input falls into
// an explicit data-absent branch, never an error.

// ScoreLocation checks the neighborhood, the free text, and every detected
// transit station against the ordered zone lists. Containment runs in both
// directions (zone inside station, station inside zone); the first matching
// zone in list order wins. A flagship-plaza mention adds the configured
// bonus on top of tier1.
func ScoreLocation(l *model.Listing, cfg *Config) model.AxisScore {
	tiers := cfg.Axes[model.AxisLocation].Tiers

	text := l.FullText()
	candidates := make([]string, 0, len(l.Stations)+1)
	if l.Neighborhood != "" {
		candidates = append(candidates, strings.ToLower(l.Neighborhood))
	}
	for _, s := range l.Stations {
		candidates = append(candidates, strings.ToLower(s))
	}

	match := func(zones []string) (string, bool) {
		for _, zone := range zones {
			zone = strings.ToLower(zone)
			if strings.Contains(text, zone) {
				return zone, true
			}
			for _, c := range candidates {
				if strings.Contains(c, zone) || strings.Contains(zone, c) {
					return zone, true
				}
			}
		}
		return "", false
	}

	if zone, ok := match(tiers[model.Tier1].Zones); ok {
		score := tiers[model.Tier1].Score
		if strings.Contains(text, "place de la réunion") ||
			strings.Contains(strings.ToLower(l.Neighborhood), "place de la réunion") {
			score += cfg.Bonus["place_reunion"]
		}
		return model.AxisScore{
			Axis:          model.AxisLocation,
			Score:         score,
			Tier:          model.Tier1,
			Justification: fmt.Sprintf("Zone premium: %s", zone),
		}
	}
	if zone, ok := match(tiers[model.Tier2].Zones); ok {
		return model.AxisScore{
			Axis:          model.AxisLocation,
			Score:         tiers[model.Tier2].Score,
			Tier:          model.Tier2,
			Justification: fmt.Sprintf("Bonne zone: %s", zone),
		}
	}
	return model.AxisScore{
		Axis:          model.AxisLocation,
		Score:         tiers[model.Tier3].Score,
		Tier:          model.Tier3,
		Justification: "Zone correcte",
	}
}

// ScorePrice compares the integer price per m² against the configured
// bands: below tier1's ceiling, inside tier2's inclusive band, else tier3.
func ScorePrice(l *model.Listing, cfg *Config) model.AxisScore {
	tiers := cfg.Axes[model.AxisPrice].Tiers

	ppa, ok := l.PricePerArea()
	if !ok {
		return model.AxisScore{
			Axis:          model.AxisPrice,
			Score:         tiers[model.Tier3].Score,
			Tier:          model.Tier3,
			Justification: "Prix/m² non disponible",
		}
	}
	if ppa < tiers[model.Tier1].MaxPerM2 {
		return model.AxisScore{
			Axis:          model.AxisPrice,
			Score:         tiers[model.Tier1].Score,
			Tier:          model.Tier1,
			Justification: fmt.Sprintf("Excellent rapport qualité/prix: %d€/m²", ppa),
			Details:       map[string]any{"price_per_m2": ppa},
		}
	}
	if ppa >= tiers[model.Tier2].MinPerM2 && ppa <= tiers[model.Tier2].MaxPerM2 {
		return model.AxisScore{
			Axis:          model.AxisPrice,
			Score:         tiers[model.Tier2].Score,
			Tier:          model.Tier2,
			Justification: fmt.Sprintf("Bon rapport qualité/prix: %d€/m²", ppa),
			Details:       map[string]any{"price_per_m2": ppa},
		}
	}
	return model.AxisScore{
		Axis:          model.AxisPrice,
		Score:         tiers[model.Tier3].Score,
		Tier:          model.Tier3,
		Justification: fmt.Sprintf("Prix élevé: %d€/m²", ppa),
		Details:       map[string]any{"price_per_m2": ppa},
	}
}

// ScoreStyle prefers the fused style annotation; without one it falls back
// to a keyword scan of the listing text. Category membership is an exact
// vocabulary match or a marker-substring match.
func ScoreStyle(l *model.Listing, cfg *Config) model.AxisScore {
	tiers := cfg.Axes[model.AxisStyle].Tiers

	var styleType string
	if ann := l.Annotations.ByKind(model.KindStyle); ann != nil {
		styleType = strings.ToLower(crossval.ScoringSignal(ann).Type)
	} else {
		sig := textsignal.New(nil).Extract(context.Background(), model.KindStyle, l.Title+" "+l.Description, l.Characteristics)
		styleType = strings.ToLower(sig.Type)
	}

	inVocab := func(vocab []string) bool {
		for _, v := range vocab {
			if styleType == strings.ToLower(v) {
				return true
			}
		}
		return false
	}

	if inVocab(tiers[model.Tier1].Styles) || strings.Contains(styleType, "haussmann") {
		return model.AxisScore{
			Axis:          model.AxisStyle,
			Score:         tiers[model.Tier1].Score,
			Tier:          model.Tier1,
			Justification: fmt.Sprintf("Style premium: %s", styleType),
		}
	}
	if inVocab(tiers[model.Tier2].Styles) || strings.Contains(styleType, "atypique") || strings.Contains(styleType, "loft") {
		return model.AxisScore{
			Axis:          model.AxisStyle,
			Score:         tiers[model.Tier2].Score,
			Tier:          model.Tier2,
			Justification: fmt.Sprintf("Style atypique: %s", styleType),
		}
	}
	return model.AxisScore{
		Axis:          model.AxisStyle,
		Score:         tiers[model.Tier3].Score,
		Tier:          model.Tier3,
		Justification: fmt.Sprintf("Style: %s", styleType),
	}
}

// Brightness buckets produced by the exposure vote.
const (
	bucketBright   = "bright"
	bucketModerate = "moderate"
	bucketDark     = "dark"
)

// ExposureBucket votes across the available signals: the fused brightness
// annotation weighs double, floor height and view mentions weigh one each.
// Ties resolve toward the darker bucket.
func ExposureBucket(l *model.Listing) string {
	votes := map[string]int{}

	if ann := l.Annotations.ByKind(model.KindExposure); ann != nil {
		switch model.ParseBrightness(crossval.ScoringSignal(ann).Type) {
		case model.BrightnessExcellent, model.BrightnessGood:
			votes[bucketBright] += 2
		case model.BrightnessModerate:
			votes[bucketModerate] += 2
		case model.BrightnessWeak, model.BrightnessDark:
			votes[bucketDark] += 2
		}
	}

	if floor, ok := l.FloorValue(); ok {
		if floor >= 4 {
			votes[bucketBright]++
		} else if floor <= 1 {
			votes[bucketDark]++
		}
	}

	text := l.FullText()
	if strings.Contains(text, "vue dégagée") || strings.Contains(text, "vue degagee") {
		votes[bucketBright]++
	}
	if strings.Contains(text, "vis-à-vis") || strings.Contains(text, "vis à vis") {
		votes[bucketDark]++
	}

	if len(votes) == 0 {
		return bucketModerate
	}
	best, bestVotes := bucketDark, -1
	for _, b := range []string{bucketDark, bucketModerate, bucketBright} {
		if votes[b] > bestVotes {
			best, bestVotes = b, votes[b]
		}
	}
	return best
}

// ScoreExposure maps the exposure bucket onto the tier table.
func ScoreExposure(l *model.Listing, cfg *Config) model.AxisScore {
	tiers := cfg.Axes[model.AxisExposure].Tiers

	bucket := ExposureBucket(l)
	switch bucket {
	case bucketBright:
		return model.AxisScore{
			Axis:          model.AxisExposure,
			Score:         tiers[model.Tier1].Score,
			Tier:          model.Tier1,
			Justification: "Appartement lumineux",
			Details:       map[string]any{"bucket": bucket},
		}
	case bucketModerate:
		return model.AxisScore{
			Axis:          model.AxisExposure,
			Score:         tiers[model.Tier2].Score,
			Tier:          model.Tier2,
			Justification: "Luminosité moyenne",
			Details:       map[string]any{"bucket": bucket},
		}
	}
	return model.AxisScore{
		Axis:          model.AxisExposure,
		Score:         tiers[model.Tier3].Score,
		Tier:          model.Tier3,
		Justification: "Appartement sombre",
		Details:       map[string]any{"bucket": bucket},
	}
}

// ScoreKitchen scores the cross-validated open-kitchen boolean. When no
// kitchen was identifiable in any photo the axis lands on the neutral tier2,
// regardless of any text-only signal; confirmed open is tier1, everything
// else tier3.
func ScoreKitchen(l *model.Listing, cfg *Config) model.AxisScore {
	return scorePresenceAxis(l, cfg, model.AxisKitchen, model.KindKitchen, presenceWording{
		confirmed: "Cuisine ouverte",
		denied:    "Cuisine fermée ou non spécifiée",
		neutral:   "Aucune cuisine identifiable sur les photos",
	})
}

// ScoreBathroom is symmetric to ScoreKitchen for the tub-present boolean.
func ScoreBathroom(l *model.Listing, cfg *Config) model.AxisScore {
	return scorePresenceAxis(l, cfg, model.AxisBathroom, model.KindBathroom, presenceWording{
		confirmed: "Baignoire détectée",
		denied:    "Pas de baignoire détectée",
		neutral:   "Aucune salle de bain identifiable sur les photos",
	})
}

type presenceWording struct {
	confirmed string
	denied    string
	neutral   string
}

func scorePresenceAxis(l *model.Listing, cfg *Config, axis model.Axis, kind model.Kind, w presenceWording) model.AxisScore {
	tiers := cfg.Axes[axis].Tiers

	ann := l.Annotations.ByKind(kind)
	if ann == nil || !ann.SubjectSeen {
		return model.AxisScore{
			Axis:          axis,
			Score:         tiers[model.Tier2].Score,
			Tier:          model.Tier2,
			Justification: w.neutral,
		}
	}

	sig := crossval.ScoringSignal(ann)
	if model.ParsePresence(sig.Type) == model.PresenceYes {
		return model.AxisScore{
			Axis:          axis,
			Score:         tiers[model.Tier1].Score,
			Tier:          model.Tier1,
			Justification: w.confirmed,
			Details: map[string]any{
				"confidence":        sig.Confidence,
				"validation_status": string(ann.Status),
			},
		}
	}
	return model.AxisScore{
		Axis:          axis,
		Score:         tiers[model.Tier3].Score,
		Tier:          model.Tier3,
		Justification: w.denied,
		Details: map[string]any{
			"confidence":        sig.Confidence,
			"validation_status": string(ann.Status),
		},
	}
}

// ScoreFloor is informational only: displayed but excluded from the
// composite total. Third and fourth floors (or higher with an elevator)
// score best; ground and first floors worst.
func ScoreFloor(l *model.Listing, cfg *Config) model.AxisScore {
	tiers := cfg.Axes[model.AxisFloor].Tiers

	floor, ok := l.FloorValue()
	if !ok {
		return model.AxisScore{
			Axis:          model.AxisFloor,
			Score:         tiers[model.Tier3].Score,
			Tier:          model.Tier3,
			Justification: "Étage non spécifié",
		}
	}
	switch {
	case floor == 3 || floor == 4 || (floor >= 5 && l.HasElevator()):
		return model.AxisScore{
			Axis:          model.AxisFloor,
			Score:         tiers[model.Tier1].Score,
			Tier:          model.Tier1,
			Justification: fmt.Sprintf("%de étage", floor),
		}
	case floor == 2 || floor == 5 || floor == 6:
		return model.AxisScore{
			Axis:          model.AxisFloor,
			Score:         tiers[model.Tier2].Score,
			Tier:          model.Tier2,
			Justification: fmt.Sprintf("%de étage", floor),
		}
	}
	return model.AxisScore{
		Axis:          model.AxisFloor,
		Score:         tiers[model.Tier3].Score,
		Tier:          model.Tier3,
		Justification: "RDC ou 1er étage",
	}
}

// ScoreArea is informational only, banded on the scraped surface.
func ScoreArea(l *model.Listing, cfg *Config) model.AxisScore {
	tiers := cfg.Axes[model.AxisArea].Tiers

	area, ok := l.AreaValue()
	if !ok {
		return model.AxisScore{
			Axis:          model.AxisArea,
			Score:         tiers[model.Tier3].Score,
			Tier:          model.Tier3,
			Justification: "Surface non spécifiée",
		}
	}
	if area > tiers[model.Tier1].MinArea {
		return model.AxisScore{
			Axis:          model.AxisArea,
			Score:         tiers[model.Tier1].Score,
			Tier:          model.Tier1,
			Justification: fmt.Sprintf("Grande surface: %dm²", area),
		}
	}
	if area >= tiers[model.Tier2].MinArea && area <= tiers[model.Tier2].MaxArea {
		return model.AxisScore{
			Axis:          model.AxisArea,
			Score:         tiers[model.Tier2].Score,
			Tier:          model.Tier2,
			Justification: fmt.Sprintf("Surface correcte: %dm²", area),
		}
	}
	return model.AxisScore{
		Axis:          model.AxisArea,
		Score:         tiers[model.Tier3].Score,
		Tier:          model.Tier3,
		Justification: fmt.Sprintf("Surface limitée: %dm²", area),
	}
}
