// Package pipeline orchestrates the analysis and scoring passes over stored
// listings: photo analysis, text extraction, cross-validation, and the
// composite score, with persistence between passes.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/classifier"
	"github.com/homescore/homescore-cli/internal/crossval"
	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/internal/scoring"
	"github.com/homescore/homescore-cli/internal/store"
	"github.com/homescore/homescore-cli/internal/textsignal"
)

// Analyzer is the classifier surface the pipeline needs. *classifier.Analyzer
// implements it; tests substitute fakes.
type Analyzer interface {
	AnalyzeText(ctx context.Context, kind model.Kind, description, characteristics string) *model.Signal
	AnalyzePhotos(ctx context.Context, urls []string) *classifier.PhotoFindings
}

// Pipeline runs the analysis and scoring passes.
type Pipeline struct {
	store     store.Store
	analyzer  Analyzer
	extractor *textsignal.Extractor
}

// New creates a Pipeline. analyzer may be nil, in which case text extraction
// falls back to keywords and no photos are analyzed.
func New(st store.Store, analyzer Analyzer) *Pipeline {
	var clf textsignal.Classifier
	if analyzer != nil {
		clf = analyzer
	}
	return &Pipeline{
		store:     st,
		analyzer:  analyzer,
		extractor: textsignal.New(clf),
	}
}

// Summary aggregates the outcome of a pass over many listings.
type Summary struct {
	Analyzed int      `json:"analyzed,omitempty"`
	Scored   int      `json:"scored,omitempty"`
	Failed   int      `json:"failed,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// Enrich runs the full analysis pass for one listing: photo analysis over up
// to five photos, text extraction per attribute, and cross-validation. The
// fused annotations are persisted and attached to the listing.
func (p *Pipeline) Enrich(ctx context.Context, listing *model.Listing) (*model.Annotations, error) {
	log := zap.L().With(zap.String("listing", listing.ID))
	log.Info("pipeline: analyzing listing", zap.Int("photos", len(listing.Photos)))

	var findings *classifier.PhotoFindings
	if p.analyzer != nil {
		findings = p.analyzer.AnalyzePhotos(ctx, listing.PhotoURLs())
	}

	ann := &model.Annotations{}
	for _, kind := range model.AllKinds() {
		text := p.extractor.Extract(ctx, kind, listing.Description, listing.Characteristics)

		var photo *model.Signal
		photosAnalyzed := 0
		if findings != nil {
			photo = findings.Signals[kind]
			photosAnalyzed = findings.PhotosAnalyzed
		}

		analysis := crossval.Validate(kind, text, photo, photosAnalyzed)
		ann.SetByKind(kind, analysis)
		log.Debug("pipeline: attribute fused",
			zap.String("kind", string(kind)),
			zap.String("status", string(analysis.Status)),
			zap.String("final", analysis.Final.Type),
		)
	}

	if err := p.store.SaveAnnotations(ctx, listing.ID, ann); err != nil {
		return nil, eris.Wrapf(err, "pipeline: save annotations %s", listing.ID)
	}
	listing.Annotations = ann
	return ann, nil
}

// EnrichAll analyzes listings sequentially; concurrency lives at the photo
// level inside the analyzer, not across listings. One failed listing never
// stops the pass.
func (p *Pipeline) EnrichAll(ctx context.Context, listings []model.Listing) *Summary {
	sum := &Summary{}
	for i := range listings {
		if ctx.Err() != nil {
			break
		}
		if _, err := p.Enrich(ctx, &listings[i]); err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", listings[i].ID, err))
			zap.L().Error("pipeline: analysis failed",
				zap.String("listing", listings[i].ID),
				zap.Error(err),
			)
			continue
		}
		sum.Analyzed++
	}
	return sum
}

// ScoreAll scores listings sequentially against one configuration. A listing
// that fails to score, even by panicking, is reported and skipped; the score
// row is only written after the whole composite is computed.
func (p *Pipeline) ScoreAll(ctx context.Context, listings []model.Listing, cfg *scoring.Config) *Summary {
	sum := &Summary{}
	for i := range listings {
		if ctx.Err() != nil {
			break
		}
		l := &listings[i]
		if err := p.scoreOne(ctx, l, cfg); err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", l.ID, err))
			zap.L().Error("pipeline: scoring failed", zap.String("listing", l.ID), zap.Error(err))
			continue
		}
		sum.Scored++
	}
	return sum
}

func (p *Pipeline) scoreOne(ctx context.Context, listing *model.Listing, cfg *scoring.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: scoring panic: %v", r)
		}
	}()

	score := scoring.Score(listing, cfg)
	if err := p.store.SaveScore(ctx, score); err != nil {
		return eris.Wrapf(err, "pipeline: save score %s", listing.ID)
	}
	zap.L().Info("pipeline: listing scored",
		zap.String("listing", listing.ID),
		zap.Int("total", score.Total),
		zap.String("tier", string(score.Tier)),
	)
	return nil
}
