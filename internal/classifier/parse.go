package classifier

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/homescore/homescore-cli/internal/model"
)

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// textResult is the JSON shape every text-analysis prompt asks for.
type textResult struct {
	Type          string  `json:"type"`
	Confidence    float64 `json:"confidence"`
	Justification string  `json:"justification"`
}

var (
	typeRe       = regexp.MustCompile(`"type"\s*:\s*"([^"]*)"`)
	confidenceRe = regexp.MustCompile(`"confidence"\s*:\s*([0-9.]+)`)
)

// parseTextSignal decodes a classifier text response into a signal,
// validating the type against the kind's vocabulary. Malformed JSON gets one
// regex salvage attempt; a nil return means the response is unusable.
func parseTextSignal(kind model.Kind, raw string) *model.Signal {
	cleaned := cleanJSON(raw)

	var res textResult
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		salvaged, ok := salvage(cleaned)
		if !ok {
			return nil
		}
		res = salvaged
	}

	sig := &model.Signal{
		Type:          normalizeType(kind, res.Type),
		Confidence:    res.Confidence,
		Justification: res.Justification,
	}
	sig.Normalize()
	return sig
}

// salvage regex-extracts the expected fields from malformed JSON.
func salvage(text string) (textResult, bool) {
	m := typeRe.FindStringSubmatch(text)
	if m == nil {
		return textResult{}, false
	}
	res := textResult{Type: m[1]}
	if cm := confidenceRe.FindStringSubmatch(text); cm != nil {
		if f, err := strconv.ParseFloat(cm[1], 64); err == nil {
			res.Confidence = f
		}
	}
	return res, true
}

// normalizeType maps a raw classifier token onto the closed vocabulary for
// the kind, degrading anything outside it to the unknown sentinel.
func normalizeType(kind model.Kind, raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch kind {
	case model.KindStyle:
		return string(model.ParseStyleType(raw))
	case model.KindKitchen, model.KindBathroom:
		return string(model.ParsePresence(raw))
	case model.KindExposure:
		return string(model.ParseBrightness(raw))
	}
	return raw
}
