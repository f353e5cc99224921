package model

// Kind identifies one analyzed listing attribute. The string values double
// as cache analysis-type keys, so they must stay stable across runs.
type Kind string

const (
	KindStyle    Kind = "style"
	KindKitchen  Kind = "cuisine"
	KindExposure Kind = "exposition"
	KindBathroom Kind = "baignoire"
)

// AllKinds returns every analyzed attribute kind.
func AllKinds() []Kind {
	return []Kind{KindStyle, KindKitchen, KindExposure, KindBathroom}
}

// Signal is the normalized classifier output for one attribute of one
// listing: a discrete type from a small per-kind vocabulary, a confidence in
// [0,1], a human-readable justification, and optional provenance details
// (e.g. which photo indices triggered detection). This is the shape that
// crosses the classifier-adapter boundary and gets cached; the typed
// per-attribute views below are derived from it with validation.
type Signal struct {
	Type          string         `json:"type"`
	Confidence    float64        `json:"confidence"`
	Justification string         `json:"justification"`
	Details       map[string]any `json:"details,omitempty"`
}

// Normalize clamps confidence into [0,1]. Classifier responses occasionally
// report confidence as a percentage or slightly out of range.
func (s *Signal) Normalize() {
	if s.Confidence > 1 && s.Confidence <= 100 {
		s.Confidence /= 100
	}
	if s.Confidence < 0 {
		s.Confidence = 0
	}
	if s.Confidence > 1 {
		s.Confidence = 1
	}
}

// IsUnknown reports whether the signal carries no evidence for its kind.
func (s Signal) IsUnknown() bool {
	return s.Type == "" || s.Type == string(PresenceUnknown) || s.Type == string(StyleUnknown) || s.Type == string(BrightnessUnknown)
}

// UnknownSignal returns the no-evidence sentinel for a kind.
func UnknownSignal(kind Kind) Signal {
	sentinel := string(PresenceUnknown)
	switch kind {
	case KindStyle:
		sentinel = string(StyleUnknown)
	case KindExposure:
		sentinel = string(BrightnessUnknown)
	}
	return Signal{Type: sentinel, Confidence: 0, Justification: "no evidence found"}
}

// StyleType is the closed style vocabulary.
type StyleType string

const (
	StyleHaussmann StyleType = "haussmannien"
	StyleAtypical  StyleType = "atypique"
	StyleModern    StyleType = "moderne"
	StyleOther     StyleType = "autre"
	StyleUnknown   StyleType = "unknown"
)

// ParseStyleType maps a raw classifier token to the closed vocabulary,
// degrading to StyleUnknown on anything outside it.
func ParseStyleType(raw string) StyleType {
	switch StyleType(raw) {
	case StyleHaussmann, StyleAtypical, StyleModern, StyleOther:
		return StyleType(raw)
	}
	return StyleUnknown
}

// Presence is the three-valued answer for boolean attributes (open kitchen,
// bathtub present). PresenceUnknown is the explicit no-evidence sentinel,
// distinct from a confirmed "no".
type Presence string

const (
	PresenceYes     Presence = "yes"
	PresenceNo      Presence = "no"
	PresenceUnknown Presence = "unknown"
)

// ParsePresence maps a raw token to the closed vocabulary.
func ParsePresence(raw string) Presence {
	switch Presence(raw) {
	case PresenceYes, PresenceNo:
		return Presence(raw)
	}
	return PresenceUnknown
}

// BrightnessLevel is the closed exposure/brightness vocabulary, ordered
// brightest first.
type BrightnessLevel string

const (
	BrightnessExcellent BrightnessLevel = "excellent"
	BrightnessGood      BrightnessLevel = "good"
	BrightnessModerate  BrightnessLevel = "moderate"
	BrightnessWeak      BrightnessLevel = "weak"
	BrightnessDark      BrightnessLevel = "dark"
	BrightnessUnknown   BrightnessLevel = "unknown"
)

// Ordinal maps a brightness level onto a 5-point scale (5 brightest,
// 1 darkest, 0 unknown) used for cross-validation distance checks.
func (b BrightnessLevel) Ordinal() int {
	switch b {
	case BrightnessExcellent:
		return 5
	case BrightnessGood:
		return 4
	case BrightnessModerate:
		return 3
	case BrightnessWeak:
		return 2
	case BrightnessDark:
		return 1
	}
	return 0
}

// ParseBrightness maps a raw token to the closed vocabulary.
func ParseBrightness(raw string) BrightnessLevel {
	switch BrightnessLevel(raw) {
	case BrightnessExcellent, BrightnessGood, BrightnessModerate, BrightnessWeak, BrightnessDark:
		return BrightnessLevel(raw)
	}
	return BrightnessUnknown
}

// ValidationStatus reports how a text-derived and a photo-derived signal for
// the same attribute relate.
type ValidationStatus string

const (
	ValidationValidated ValidationStatus = "validated"
	ValidationConflict  ValidationStatus = "conflict"
	ValidationTextOnly  ValidationStatus = "text_only"
)

// AttributeAnalysis holds the fused outcome for one attribute of one
// listing: the text and photo signals, the cross-validation verdict, and the
// display-facing final signal.
//
// Final always carries the text side's categorical value when the text side
// has one; scoring may instead prefer whichever raw signal is more confident
// in conflict cases. That asymmetry (display text-first, scoring
// confidence-first) is a deliberate contract, not an inconsistency to unify.
type AttributeAnalysis struct {
	Kind               Kind             `json:"kind"`
	Final              Signal           `json:"final"`
	Text               *Signal          `json:"text,omitempty"`
	Photo              *Signal          `json:"photo,omitempty"`
	Status             ValidationStatus `json:"status"`
	AdjustedConfidence float64          `json:"confidence_adjusted"`
	PhotosAnalyzed     int              `json:"photos_analyzed"`
	// SubjectSeen reports whether any analyzed photo showed the subject at
	// all (a kitchen, a bathroom). False with photos analyzed means the
	// attribute simply never appeared on camera, which scores neutrally.
	SubjectSeen bool `json:"subject_seen"`
}

// Annotations is the set of fused analyses attached to a listing after the
// analysis pass.
type Annotations struct {
	Style    *AttributeAnalysis `json:"style,omitempty"`
	Kitchen  *AttributeAnalysis `json:"kitchen,omitempty"`
	Exposure *AttributeAnalysis `json:"exposure,omitempty"`
	Bathroom *AttributeAnalysis `json:"bathroom,omitempty"`
}

// ByKind returns the analysis for one kind, nil when absent.
func (a *Annotations) ByKind(kind Kind) *AttributeAnalysis {
	if a == nil {
		return nil
	}
	switch kind {
	case KindStyle:
		return a.Style
	case KindKitchen:
		return a.Kitchen
	case KindExposure:
		return a.Exposure
	case KindBathroom:
		return a.Bathroom
	}
	return nil
}

// SetByKind attaches the analysis for one kind.
func (a *Annotations) SetByKind(kind Kind, analysis *AttributeAnalysis) {
	switch kind {
	case KindStyle:
		a.Style = analysis
	case KindKitchen:
		a.Kitchen = analysis
	case KindExposure:
		a.Exposure = analysis
	case KindBathroom:
		a.Bathroom = analysis
	}
}
