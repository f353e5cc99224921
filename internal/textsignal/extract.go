// Package textsignal derives attribute signals from a listing's free text.
// Extraction is an ordered list of strategies evaluated first-success-wins:
// external classifier, keyword tables, then the unknown sentinel.
package textsignal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/model"
)

// Classifier is the subset of the classifier adapter the extractor uses.
type Classifier interface {
	AnalyzeText(ctx context.Context, kind model.Kind, description, characteristics string) *model.Signal
}

// Strategy is one extraction attempt. A nil return means "no answer, try
// the next strategy"; any non-nil signal ends the chain.
type Strategy struct {
	Name    string
	Extract func(ctx context.Context, kind model.Kind, description, characteristics string) *model.Signal
}

// Extractor runs the strategy chain for one attribute kind.
type Extractor struct {
	strategies []Strategy
}

// New builds the standard chain. classifier may be nil, in which case only
// the keyword tables and the sentinel remain.
func New(classifier Classifier) *Extractor {
	e := &Extractor{}
	if classifier != nil {
		e.strategies = append(e.strategies, Strategy{
			Name:    "classifier",
			Extract: classifier.AnalyzeText,
		})
	}
	e.strategies = append(e.strategies,
		Strategy{Name: "keywords", Extract: keywordExtract},
		Strategy{Name: "sentinel", Extract: sentinelExtract},
	)
	return e
}

// Extract produces a signal for one attribute kind. Never returns nil: the
// sentinel strategy always answers.
func (e *Extractor) Extract(ctx context.Context, kind model.Kind, description, characteristics string) *model.Signal {
	for _, s := range e.strategies {
		sig := s.Extract(ctx, kind, description, characteristics)
		if sig == nil {
			continue
		}
		zap.L().Debug("textsignal: extracted",
			zap.String("kind", string(kind)),
			zap.String("strategy", s.Name),
			zap.String("type", sig.Type),
		)
		return sig
	}
	sig := model.UnknownSignal(kind)
	return &sig
}

// keywordExtract scans the folded text against the kind's keyword table.
// Table order is the tie-break: the first matching entry wins.
func keywordExtract(_ context.Context, kind model.Kind, description, characteristics string) *model.Signal {
	text := fold(description + " " + characteristics)
	for _, kw := range tableFor(kind) {
		if !containsFolded(text, kw.term) {
			continue
		}
		return &model.Signal{
			Type:          kw.typ,
			Confidence:    kw.confidence,
			Justification: fmt.Sprintf("mot-clé détecté: %q", kw.term),
			Details:       map[string]any{"keyword": kw.term, "method": "keyword_search"},
		}
	}
	return nil
}

// sentinelExtract terminates the chain with the unknown sentinel.
func sentinelExtract(_ context.Context, kind model.Kind, _, _ string) *model.Signal {
	sig := model.UnknownSignal(kind)
	return &sig
}

func containsFolded(foldedText, term string) bool {
	return term != "" && strings.Contains(foldedText, fold(term))
}
