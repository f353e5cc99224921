package textsignal

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/homescore/homescore-cli/internal/model"
)

// keyword maps one marker phrase to a signal type. Tables are ordered: the
// first match wins, so more specific phrases go first.
type keyword struct {
	term       string
	typ        string
	confidence float64
}

var kitchenKeywords = []keyword{
	{"cuisine américaine", string(model.PresenceYes), 0.8},
	{"cuisine ouverte", string(model.PresenceYes), 0.8},
	{"cuisine intégrée", string(model.PresenceYes), 0.8},
	{"séjour cuisine", string(model.PresenceYes), 0.8},
	{"pièce à vivre", string(model.PresenceYes), 0.8},
	{"cuisine fermée", string(model.PresenceNo), 0.8},
	{"cuisine indépendante", string(model.PresenceNo), 0.8},
	{"cuisine séparée", string(model.PresenceNo), 0.8},
}

var bathroomKeywords = []keyword{
	{"baignoire", string(model.PresenceYes), 0.8},
	{"douche à l'italienne", string(model.PresenceNo), 0.6},
	{"douche uniquement", string(model.PresenceNo), 0.6},
}

var exposureKeywords = []keyword{
	{"plein sud", string(model.BrightnessExcellent), 0.8},
	{"très lumineux", string(model.BrightnessExcellent), 0.8},
	{"baigné de lumière", string(model.BrightnessExcellent), 0.8},
	{"traversant", string(model.BrightnessGood), 0.7},
	{"exposition sud", string(model.BrightnessGood), 0.7},
	{"exposé sud", string(model.BrightnessGood), 0.7},
	{"lumineux", string(model.BrightnessGood), 0.7},
	{"ensoleillé", string(model.BrightnessGood), 0.7},
	{"exposition nord", string(model.BrightnessWeak), 0.7},
	{"sombre", string(model.BrightnessDark), 0.7},
}

var styleKeywords = []keyword{
	{"haussmannien", string(model.StyleHaussmann), 0.8},
	{"haussmann", string(model.StyleHaussmann), 0.8},
	{"pierre de taille", string(model.StyleHaussmann), 0.7},
	{"immeuble ancien", string(model.StyleHaussmann), 0.7},
	{"moulures", string(model.StyleHaussmann), 0.7},
	{"loft", string(model.StyleAtypical), 0.8},
	{"atypique", string(model.StyleAtypical), 0.8},
	{"immeuble récent", string(model.StyleModern), 0.7},
	{"construction récente", string(model.StyleModern), 0.7},
	{"résidence moderne", string(model.StyleModern), 0.7},
	{"années 70", string(model.StyleModern), 0.7},
	{"années 60", string(model.StyleModern), 0.7},
}

// conceptKeywords map conversion contexts to the atypical category: an
// apartment carved out of an industrial or artisanal space counts as a loft
// even when the listing never uses the word.
var conceptKeywords = []keyword{
	{"ancien entrepôt", string(model.StyleAtypical), 0.8},
	{"ancienne usine", string(model.StyleAtypical), 0.8},
	{"ancien atelier", string(model.StyleAtypical), 0.8},
	{"atelier réhabilité", string(model.StyleAtypical), 0.8},
	{"atelier d'artiste", string(model.StyleAtypical), 0.8},
	{"ancienne fabrique", string(model.StyleAtypical), 0.8},
}

func tableFor(kind model.Kind) []keyword {
	switch kind {
	case model.KindKitchen:
		return kitchenKeywords
	case model.KindBathroom:
		return bathroomKeywords
	case model.KindExposure:
		return exposureKeywords
	case model.KindStyle:
		// Concept markers first so a conversion context beats a generic
		// style marker appearing in the same text.
		return append(append([]keyword{}, conceptKeywords...), styleKeywords...)
	}
	return nil
}

// fold lowercases and strips diacritics so keyword tables match both the
// accented and unaccented spellings scrapers produce.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
