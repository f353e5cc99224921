package classifier

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/pkg/vision"
)

// PhotoFindings is the merged photo-derived evidence for one listing: one
// signal per attribute kind plus how many photos actually got analyzed. A
// kind's signal is the unknown sentinel when no photo showed its subject.
type PhotoFindings struct {
	Signals        map[model.Kind]*model.Signal
	PhotosAnalyzed int
}

// photoAnalysis is the unified JSON shape one vision call returns: all four
// attributes extracted from a single photo at once.
type photoAnalysis struct {
	Style struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	} `json:"style"`
	Kitchen struct {
		Visible    bool    `json:"visible"`
		Open       bool    `json:"open"`
		Confidence float64 `json:"confidence"`
	} `json:"kitchen"`
	Brightness struct {
		Level      string  `json:"level"`
		Confidence float64 `json:"confidence"`
	} `json:"brightness"`
	Bathroom struct {
		Visible    bool    `json:"visible"`
		Bathtub    bool    `json:"bathtub"`
		Confidence float64 `json:"confidence"`
	} `json:"bathroom"`
}

const photoPrompt = `Analyse cette photo d'appartement et extrais les quatre informations suivantes en une seule fois.

1. STYLE: "haussmannien" (moulures, parquet ancien, cheminée), "atypique" (loft, conversion), "moderne", "autre".
2. CUISINE: visible sur la photo ? ouverte sur la pièce de vie ?
3. LUMINOSITÉ: "excellent", "good", "moderate", "weak" ou "dark".
4. BAIGNOIRE: salle de bain visible ? baignoire présente ?

Réponds UNIQUEMENT avec cet objet JSON:
{
  "style": {"type": "...", "confidence": 0.0},
  "kitchen": {"visible": false, "open": false, "confidence": 0.0},
  "brightness": {"level": "...", "confidence": 0.0},
  "bathroom": {"visible": false, "bathtub": false, "confidence": 0.0}
}`

// AnalyzePhotos runs the unified vision analysis over up to five photos of
// one listing with a bounded worker pool, then merges per-photo results with
// order-invariant reducers. Photo failures are skipped, never fatal.
func (a *Analyzer) AnalyzePhotos(ctx context.Context, urls []string) *PhotoFindings {
	if len(urls) > maxImagesPerCall {
		urls = urls[:maxImagesPerCall]
	}
	if len(urls) == 0 {
		return emptyFindings()
	}

	var mu sync.Mutex
	results := make([]photoResult, 0, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.PhotoWorkers)
	for i, url := range urls {
		g.Go(func() error {
			if res, ok := a.analyzePhoto(gctx, url); ok {
				mu.Lock()
				results = append(results, photoResult{index: i, analysis: res})
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()

	return mergeFindings(results)
}

type photoResult struct {
	index    int
	analysis photoAnalysis
}

// analyzePhoto classifies one photo, serving all four kinds from cache when
// every per-kind entry for this URL is present.
func (a *Analyzer) analyzePhoto(ctx context.Context, url string) (photoAnalysis, bool) {
	if res, ok := a.cachedPhoto(url); ok {
		return res, true
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return photoAnalysis{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.PhotoTimeout)
	defer cancel()

	resp, err := a.client.Complete(callCtx, vision.Request{
		Model:       a.opts.Model,
		MaxTokens:   1024,
		Prompt:      photoPrompt,
		Images:      []vision.Image{{URL: url}},
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		zap.L().Warn("classifier: photo analysis failed", zap.String("url", url), zap.Error(err))
		return photoAnalysis{}, false
	}
	resp.Usage.LogCost(a.opts.Model, "photo")

	var res photoAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &res); err != nil {
		zap.L().Warn("classifier: unparseable photo response", zap.String("url", url), zap.Error(err))
		return photoAnalysis{}, false
	}

	a.cachePhoto(url, res)
	return res, true
}

// cachedPhoto reassembles a unified analysis from the four per-kind cache
// entries for one photo URL. All four must be present.
func (a *Analyzer) cachedPhoto(url string) (photoAnalysis, bool) {
	if a.cache == nil {
		return photoAnalysis{}, false
	}

	var res photoAnalysis
	for _, kind := range model.AllKinds() {
		sig, ok := a.cache.Get(kind, url)
		if !ok {
			return photoAnalysis{}, false
		}
		switch kind {
		case model.KindStyle:
			res.Style.Type = sig.Type
			res.Style.Confidence = sig.Confidence
		case model.KindKitchen:
			res.Kitchen.Visible = sig.Type != string(model.PresenceUnknown)
			res.Kitchen.Open = sig.Type == string(model.PresenceYes)
			res.Kitchen.Confidence = sig.Confidence
		case model.KindExposure:
			res.Brightness.Level = sig.Type
			res.Brightness.Confidence = sig.Confidence
		case model.KindBathroom:
			res.Bathroom.Visible = sig.Type != string(model.PresenceUnknown)
			res.Bathroom.Bathtub = sig.Type == string(model.PresenceYes)
			res.Bathroom.Confidence = sig.Confidence
		}
	}
	return res, true
}

// cachePhoto writes one per-kind entry per photo URL.
func (a *Analyzer) cachePhoto(url string, res photoAnalysis) {
	if a.cache == nil {
		return
	}
	a.cache.Set(model.KindStyle, url, model.Signal{
		Type:       string(model.ParseStyleType(res.Style.Type)),
		Confidence: res.Style.Confidence,
	})
	a.cache.Set(model.KindKitchen, url, model.Signal{
		Type:       presenceToken(res.Kitchen.Visible, res.Kitchen.Open),
		Confidence: res.Kitchen.Confidence,
	})
	a.cache.Set(model.KindExposure, url, model.Signal{
		Type:       string(model.ParseBrightness(res.Brightness.Level)),
		Confidence: res.Brightness.Confidence,
	})
	a.cache.Set(model.KindBathroom, url, model.Signal{
		Type:       presenceToken(res.Bathroom.Visible, res.Bathroom.Bathtub),
		Confidence: res.Bathroom.Confidence,
	})
}

func presenceToken(visible, positive bool) string {
	if !visible {
		return string(model.PresenceUnknown)
	}
	if positive {
		return string(model.PresenceYes)
	}
	return string(model.PresenceNo)
}

func emptyFindings() *PhotoFindings {
	signals := make(map[model.Kind]*model.Signal, len(model.AllKinds()))
	for _, kind := range model.AllKinds() {
		sig := model.UnknownSignal(kind)
		signals[kind] = &sig
	}
	return &PhotoFindings{Signals: signals}
}

// mergeFindings reduces per-photo analyses with commutative reducers:
// majority vote for style and brightness, boolean OR with max confidence
// for the presence kinds. Result is independent of completion order.
func mergeFindings(results []photoResult) *PhotoFindings {
	findings := emptyFindings()
	findings.PhotosAnalyzed = len(results)
	if len(results) == 0 {
		return findings
	}

	// Sort by photo index so provenance details are stable.
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	findings.Signals[model.KindStyle] = mergeVote(results, func(p photoAnalysis) (string, float64) {
		return string(model.ParseStyleType(p.Style.Type)), p.Style.Confidence
	}, string(model.StyleUnknown))

	brightness := mergeVote(results, func(p photoAnalysis) (string, float64) {
		return string(model.ParseBrightness(p.Brightness.Level)), p.Brightness.Confidence
	}, string(model.BrightnessUnknown))
	if brightness.Type != string(model.BrightnessUnknown) {
		// Multiple photos agree more often than one photo is right.
		if len(results) > 1 {
			brightness.Confidence = 0.8
		} else {
			brightness.Confidence = 0.6
		}
	}
	findings.Signals[model.KindExposure] = brightness

	findings.Signals[model.KindKitchen] = mergePresence(results, model.KindKitchen, func(p photoAnalysis) (bool, bool, float64) {
		return p.Kitchen.Visible, p.Kitchen.Open, p.Kitchen.Confidence
	})
	findings.Signals[model.KindBathroom] = mergePresence(results, model.KindBathroom, func(p photoAnalysis) (bool, bool, float64) {
		return p.Bathroom.Visible, p.Bathroom.Bathtub, p.Bathroom.Confidence
	})

	return findings
}

// mergeVote picks the most frequent non-unknown value; among equally
// frequent values the one seen first by photo index wins. Confidence is the
// best confidence reported for the winning value.
func mergeVote(results []photoResult, extract func(photoAnalysis) (string, float64), unknown string) *model.Signal {
	counts := make(map[string]int)
	best := make(map[string]float64)
	order := make([]string, 0, len(results))
	for _, r := range results {
		typ, conf := extract(r.analysis)
		if typ == unknown {
			continue
		}
		if _, seen := counts[typ]; !seen {
			order = append(order, typ)
		}
		counts[typ]++
		if conf > best[typ] {
			best[typ] = conf
		}
	}
	if len(order) == 0 {
		return &model.Signal{Type: unknown}
	}

	winner := order[0]
	for _, typ := range order[1:] {
		if counts[typ] > counts[winner] {
			winner = typ
		}
	}
	return &model.Signal{
		Type:          winner,
		Confidence:    best[winner],
		Justification: "analyse photos",
	}
}

// mergePresence ORs the positive detections across photos that showed the
// subject; no subject in any photo yields the unknown sentinel.
func mergePresence(results []photoResult, kind model.Kind, extract func(photoAnalysis) (visible, positive bool, conf float64)) *model.Signal {
	anyVisible := false
	anyPositive := false
	maxConf := 0.0
	detected := []int{}
	for _, r := range results {
		visible, positive, conf := extract(r.analysis)
		if !visible {
			continue
		}
		anyVisible = true
		if conf > maxConf {
			maxConf = conf
		}
		if positive {
			anyPositive = true
			detected = append(detected, r.index)
		}
	}
	if !anyVisible {
		sig := model.UnknownSignal(kind)
		return &sig
	}

	typ := string(model.PresenceNo)
	if anyPositive {
		typ = string(model.PresenceYes)
	}
	sig := &model.Signal{
		Type:          typ,
		Confidence:    maxConf,
		Justification: "analyse photos",
	}
	if len(detected) > 0 {
		sig.Details = map[string]any{"detected_photos": detected}
	}
	return sig
}
