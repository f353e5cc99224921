package crossval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore-cli/internal/model"
)

func sig(typ string, conf float64) *model.Signal {
	return &model.Signal{Type: typ, Confidence: conf}
}

func TestTextOnlyPassthrough(t *testing.T) {
	text := sig("yes", 0.8)

	a := Validate(model.KindKitchen, text, nil, 0)
	assert.Equal(t, model.ValidationTextOnly, a.Status)
	assert.InDelta(t, 0.8, a.AdjustedConfidence, 1e-9)
	assert.Equal(t, "yes", a.Final.Type)
	assert.False(t, a.SubjectSeen)

	// Zero photos analyzed behaves the same even with a photo signal value.
	a = Validate(model.KindKitchen, text, sig("no", 0.9), 0)
	assert.Equal(t, model.ValidationTextOnly, a.Status)
}

func TestValidatedConfidenceBlend(t *testing.T) {
	a := Validate(model.KindKitchen, sig("yes", 0.8), sig("yes", 0.6), 3)
	assert.Equal(t, model.ValidationValidated, a.Status)
	// 0.6*0.8 + 0.4*0.6 + 0.1 = 0.82
	assert.InDelta(t, 0.82, a.AdjustedConfidence, 1e-9)
	assert.Equal(t, "yes", a.Final.Type)
	assert.True(t, a.SubjectSeen)
}

func TestValidatedConfidenceCappedAtOne(t *testing.T) {
	a := Validate(model.KindKitchen, sig("yes", 1.0), sig("yes", 1.0), 2)
	assert.InDelta(t, 1.0, a.AdjustedConfidence, 1e-9)
}

func TestConflictConfidencePenalty(t *testing.T) {
	a := Validate(model.KindKitchen, sig("yes", 0.8), sig("no", 0.6), 3)
	assert.Equal(t, model.ValidationConflict, a.Status)
	// (0.8+0.6)/2 - 0.2 = 0.5
	assert.InDelta(t, 0.5, a.AdjustedConfidence, 1e-9)
}

func TestConflictConfidenceFloor(t *testing.T) {
	a := Validate(model.KindKitchen, sig("yes", 0.3), sig("no", 0.3), 1)
	assert.Equal(t, model.ValidationConflict, a.Status)
	assert.InDelta(t, 0.3, a.AdjustedConfidence, 1e-9)
}

// Agreement is symmetric: equal boolean values validate no matter which
// side is more confident.
func TestAgreementSymmetry(t *testing.T) {
	confs := []struct{ text, photo float64 }{
		{0.9, 0.1}, {0.1, 0.9}, {0.5, 0.5}, {1.0, 0.0},
	}
	for _, c := range confs {
		for _, kind := range []model.Kind{model.KindKitchen, model.KindBathroom} {
			a := Validate(kind, sig("yes", c.text), sig("yes", c.photo), 2)
			assert.Equal(t, model.ValidationValidated, a.Status)
			b := Validate(kind, sig("no", c.text), sig("no", c.photo), 2)
			assert.Equal(t, model.ValidationValidated, b.Status)
		}
	}
}

func TestBooleanUnknownSideIsConsistent(t *testing.T) {
	a := Validate(model.KindBathroom, sig("unknown", 0), sig("yes", 0.7), 2)
	assert.Equal(t, model.ValidationValidated, a.Status)
	// Text found nothing, so the photo value surfaces as final.
	assert.Equal(t, "yes", a.Final.Type)

	a = Validate(model.KindBathroom, sig("yes", 0.8), sig("unknown", 0), 2)
	assert.Equal(t, model.ValidationValidated, a.Status)
	assert.Equal(t, "yes", a.Final.Type)
}

func TestExposureOrdinalDistance(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		photo string
		want  model.ValidationStatus
	}{
		{"identical", "good", "good", model.ValidationValidated},
		{"distance two", "excellent", "moderate", model.ValidationValidated},
		{"distance three", "excellent", "weak", model.ValidationConflict},
		{"distance four", "excellent", "dark", model.ValidationConflict},
		{"unknown side", "unknown", "dark", model.ValidationValidated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Validate(model.KindExposure, sig(tt.text, 0.7), sig(tt.photo, 0.7), 2)
			assert.Equal(t, tt.want, a.Status)
		})
	}
}

func TestStyleConsistency(t *testing.T) {
	a := Validate(model.KindStyle, sig("haussmannien", 0.8), sig("Haussmannien", 0.6), 3)
	assert.Equal(t, model.ValidationValidated, a.Status)

	a = Validate(model.KindStyle, sig("haussmannien", 0.8), sig("moderne", 0.6), 3)
	assert.Equal(t, model.ValidationConflict, a.Status)

	a = Validate(model.KindStyle, sig("", 0), sig("moderne", 0.6), 3)
	assert.Equal(t, model.ValidationValidated, a.Status)
}

func TestDisplayPrefersTextOnConflict(t *testing.T) {
	// Photo is more confident, but Final still carries the text value.
	a := Validate(model.KindKitchen, sig("yes", 0.4), sig("no", 0.9), 3)
	require.Equal(t, model.ValidationConflict, a.Status)
	assert.Equal(t, "yes", a.Final.Type)
}

func TestScoringSignalPrefersConfidenceOnConflict(t *testing.T) {
	a := Validate(model.KindKitchen, sig("yes", 0.4), sig("no", 0.9), 3)
	require.Equal(t, model.ValidationConflict, a.Status)

	scored := ScoringSignal(a)
	assert.Equal(t, "no", scored.Type)
	assert.InDelta(t, a.AdjustedConfidence, scored.Confidence, 1e-9)

	// Outside conflicts, scoring sees the displayed final value.
	v := Validate(model.KindKitchen, sig("yes", 0.4), sig("yes", 0.9), 3)
	assert.Equal(t, "yes", ScoringSignal(v).Type)
}

func TestNilTextBecomesSentinel(t *testing.T) {
	a := Validate(model.KindKitchen, nil, sig("yes", 0.7), 2)
	assert.Equal(t, model.ValidationValidated, a.Status)
	assert.Equal(t, "yes", a.Final.Type)
}
