// Package crossval reconciles a text-derived and a photo-derived signal for
// the same listing attribute into a validation status and an adjusted
// confidence.
package crossval

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/model"
)

// Validate fuses the two signal sources for one attribute.
//
// With no photo evidence the text signal passes through unchanged as
// text_only. Otherwise consistency is judged per kind, and the adjusted
// confidence blends both raw confidences: agreement rewards, conflict
// penalizes with a 0.3 floor.
//
// The returned Final carries the text side's categorical value whenever the
// text side has one; ScoringSignal applies the confidence-first preference
// instead. Display is text-first, scoring is confidence-first.
func Validate(kind model.Kind, text, photo *model.Signal, photosAnalyzed int) *model.AttributeAnalysis {
	if text == nil {
		sentinel := model.UnknownSignal(kind)
		text = &sentinel
	}

	a := &model.AttributeAnalysis{
		Kind:           kind,
		Text:           text,
		Photo:          photo,
		PhotosAnalyzed: photosAnalyzed,
	}

	if photo == nil || photosAnalyzed == 0 {
		a.Status = model.ValidationTextOnly
		a.AdjustedConfidence = text.Confidence
		a.Final = *text
		return a
	}
	a.SubjectSeen = !photo.IsUnknown()

	if consistent(kind, text, photo) {
		a.Status = model.ValidationValidated
		a.AdjustedConfidence = math.Min(1.0, 0.6*text.Confidence+0.4*photo.Confidence+0.1)
	} else {
		a.Status = model.ValidationConflict
		a.AdjustedConfidence = math.Max(0.3, (text.Confidence+photo.Confidence)/2-0.2)
		zap.L().Debug("crossval: conflict",
			zap.String("kind", string(kind)),
			zap.String("text_type", text.Type),
			zap.String("photo_type", photo.Type),
		)
	}

	// Display favors the text side; the photo value only surfaces when the
	// text found nothing.
	if !text.IsUnknown() {
		a.Final = *text
	} else {
		a.Final = *photo
	}
	a.Final.Confidence = a.AdjustedConfidence
	return a
}

// ScoringSignal returns the signal the scorers should consume. On conflict
// the more confident raw side wins; everywhere else it is the displayed
// final value.
func ScoringSignal(a *model.AttributeAnalysis) model.Signal {
	if a == nil {
		return model.Signal{}
	}
	if a.Status == model.ValidationConflict && a.Text != nil && a.Photo != nil {
		preferred := *a.Text
		if a.Photo.Confidence > a.Text.Confidence {
			preferred = *a.Photo
		}
		preferred.Confidence = a.AdjustedConfidence
		return preferred
	}
	return a.Final
}

// consistent applies the per-kind agreement rule.
func consistent(kind model.Kind, text, photo *model.Signal) bool {
	switch kind {
	case model.KindKitchen, model.KindBathroom:
		t := model.ParsePresence(text.Type)
		p := model.ParsePresence(photo.Type)
		return t == p || t == model.PresenceUnknown || p == model.PresenceUnknown
	case model.KindExposure:
		t := model.ParseBrightness(text.Type)
		p := model.ParseBrightness(photo.Type)
		if t == model.BrightnessUnknown || p == model.BrightnessUnknown {
			return true
		}
		d := t.Ordinal() - p.Ordinal()
		if d < 0 {
			d = -d
		}
		return d <= 2
	case model.KindStyle:
		t := strings.TrimSpace(strings.ToLower(text.Type))
		p := strings.TrimSpace(strings.ToLower(photo.Type))
		if t == "" || p == "" || t == string(model.StyleUnknown) || p == string(model.StyleUnknown) {
			return true
		}
		return t == p
	}
	return text.Type == photo.Type
}
