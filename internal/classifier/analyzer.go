// Package classifier adapts the external vision/text model into the
// engine's signal shape. It owns no domain logic: cache lookups, request
// construction, response parsing, and timeout handling only. Every failure
// degrades to a nil signal; nothing here ever surfaces an error to scoring.
package classifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/homescore/homescore-cli/internal/cache"
	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/pkg/vision"
)

// maxImagesPerCall bounds vision cost per request.
const maxImagesPerCall = 5

// Options configures an Analyzer.
type Options struct {
	Model        string
	TextTimeout  time.Duration
	PhotoTimeout time.Duration
	// RequestsPerMinute throttles classifier calls; 0 disables throttling.
	RequestsPerMinute int
	Temperature       *float64
	PhotoWorkers      int
}

// Analyzer is the classifier adapter.
type Analyzer struct {
	client  vision.Client
	cache   *cache.Cache
	limiter *rate.Limiter
	opts    Options
}

// New builds an Analyzer. cache may be nil to disable caching (tests).
func New(client vision.Client, c *cache.Cache, opts Options) *Analyzer {
	if opts.Model == "" {
		opts.Model = "claude-haiku-4-5-20251001"
	}
	if opts.TextTimeout == 0 {
		opts.TextTimeout = 15 * time.Second
	}
	if opts.PhotoTimeout == 0 {
		opts.PhotoTimeout = 60 * time.Second
	}
	if opts.PhotoWorkers == 0 {
		opts.PhotoWorkers = 5
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), opts.RequestsPerMinute)
	}

	return &Analyzer{
		client:  client,
		cache:   c,
		limiter: limiter,
		opts:    opts,
	}
}

// textPrompts holds the per-kind instruction for text analysis. Every prompt
// demands the same JSON shape so parsing stays uniform.
var textPrompts = map[model.Kind]string{
	model.KindStyle: `Analyse le style architectural de cet appartement d'après le texte.
Catégories: "haussmannien" (moulures, parquet ancien, pierre de taille), "atypique" (loft, conversion d'entrepôt ou d'atelier), "moderne" (récent, années 60-70), "autre".`,
	model.KindKitchen: `Détermine si la cuisine est ouverte sur la pièce de vie d'après le texte.
Catégories: "yes" (américaine, ouverte, intégrée au séjour), "no" (fermée, indépendante, séparée), "unknown" (non mentionnée).`,
	model.KindExposure: `Évalue la luminosité de cet appartement d'après le texte.
Catégories: "excellent", "good", "moderate", "weak", "dark", "unknown".`,
	model.KindBathroom: `Détermine si une baignoire est présente d'après le texte.
Catégories: "yes" (baignoire mentionnée), "no" (douche uniquement), "unknown" (non mentionné).`,
}

const textSystem = `Tu analyses des annonces immobilières. Réponds UNIQUEMENT avec un objet JSON:
{"type": "<catégorie>", "confidence": 0.0-1.0, "justification": "<une phrase>"}
Aucun texte avant ou après le JSON.`

// AnalyzeText classifies one attribute from the listing text. Returns nil
// on any failure; the caller's strategy chain falls back to keywords.
func (a *Analyzer) AnalyzeText(ctx context.Context, kind model.Kind, description, characteristics string) *model.Signal {
	prompt, ok := textPrompts[kind]
	if !ok {
		return nil
	}

	input := description + "\n" + characteristics
	if a.cache != nil {
		if sig, hit := a.cache.Get(kind, input); hit {
			return sig
		}
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.TextTimeout)
	defer cancel()

	resp, err := a.client.Complete(callCtx, vision.Request{
		Model:       a.opts.Model,
		MaxTokens:   512,
		System:      textSystem,
		Prompt:      fmt.Sprintf("%s\n\nDescription:\n%s\n\nCaractéristiques:\n%s", prompt, description, characteristics),
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		zap.L().Warn("classifier: text analysis failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil
	}
	resp.Usage.LogCost(a.opts.Model, "text:"+string(kind))

	sig := parseTextSignal(kind, resp.Text)
	if sig == nil {
		zap.L().Warn("classifier: unparseable text response", zap.String("kind", string(kind)))
		return nil
	}

	if a.cache != nil {
		a.cache.Set(kind, input, *sig)
	}
	return sig
}
