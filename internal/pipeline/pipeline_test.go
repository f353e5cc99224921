package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore-cli/internal/classifier"
	"github.com/homescore/homescore-cli/internal/model"
	"github.com/homescore/homescore-cli/internal/scoring"
	"github.com/homescore/homescore-cli/internal/store"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	listings    map[string]*model.Listing
	annotations map[string]*model.Annotations
	scores      map[string]*model.CompositeScore

	failAnnotations bool
	panicOnScore    bool
}

func newMemStore() *memStore {
	return &memStore{
		listings:    make(map[string]*model.Listing),
		annotations: make(map[string]*model.Annotations),
		scores:      make(map[string]*model.CompositeScore),
	}
}

func (m *memStore) SaveListing(_ context.Context, l *model.Listing) error {
	m.listings[l.ID] = l
	return nil
}

func (m *memStore) GetListing(_ context.Context, id string) (*model.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return nil, fmt.Errorf("get listing: %s", id)
	}
	return l, nil
}

func (m *memStore) ListListings(_ context.Context, _ store.ListingFilter) ([]model.Listing, error) {
	var out []model.Listing
	for _, l := range m.listings {
		out = append(out, *l)
	}
	return out, nil
}

func (m *memStore) SaveAnnotations(_ context.Context, id string, ann *model.Annotations) error {
	if m.failAnnotations {
		return fmt.Errorf("disk full")
	}
	m.annotations[id] = ann
	return nil
}

func (m *memStore) SaveScore(_ context.Context, sc *model.CompositeScore) error {
	if m.panicOnScore {
		panic("boom")
	}
	m.scores[sc.ListingID] = sc
	return nil
}

func (m *memStore) GetScore(_ context.Context, id string) (*model.CompositeScore, error) {
	sc, ok := m.scores[id]
	if !ok {
		return nil, fmt.Errorf("get score: %s", id)
	}
	return sc, nil
}

func (m *memStore) ListScores(_ context.Context, _ int) ([]model.CompositeScore, error) {
	var out []model.CompositeScore
	for _, sc := range m.scores {
		out = append(out, *sc)
	}
	return out, nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }

// fakeAnalyzer scripts text and photo results.
type fakeAnalyzer struct {
	text   map[model.Kind]*model.Signal
	photos *classifier.PhotoFindings
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, kind model.Kind, _, _ string) *model.Signal {
	return f.text[kind]
}

func (f *fakeAnalyzer) AnalyzePhotos(_ context.Context, _ []string) *classifier.PhotoFindings {
	return f.photos
}

func unknownFindings(analyzed int) *classifier.PhotoFindings {
	signals := make(map[model.Kind]*model.Signal)
	for _, kind := range model.AllKinds() {
		sig := model.UnknownSignal(kind)
		signals[kind] = &sig
	}
	return &classifier.PhotoFindings{Signals: signals, PhotosAnalyzed: analyzed}
}

func listingFixture(id string) model.Listing {
	return model.Listing{
		ID:           id,
		Title:        "3 pièces Charonne",
		Description:  "Appartement haussmannien avec cuisine ouverte, très lumineux, baignoire",
		Price:        "760 000 €",
		Area:         "80 m²",
		Neighborhood: "Charonne",
		Photos:       []model.Photo{{URL: "u1"}, {URL: "u2"}},
	}
}

func TestEnrichFusesTextAndPhotos(t *testing.T) {
	st := newMemStore()
	findings := unknownFindings(2)
	findings.Signals[model.KindStyle] = &model.Signal{Type: "haussmannien", Confidence: 0.9}
	fa := &fakeAnalyzer{
		text: map[model.Kind]*model.Signal{
			model.KindStyle: {Type: "haussmannien", Confidence: 0.8, Justification: "moulures"},
		},
		photos: findings,
	}
	p := New(st, fa)

	l := listingFixture("apt-1")
	ann, err := p.Enrich(context.Background(), &l)
	require.NoError(t, err)
	require.NotNil(t, ann)

	style := ann.ByKind(model.KindStyle)
	require.NotNil(t, style)
	assert.Equal(t, model.ValidationValidated, style.Status)
	assert.Equal(t, "haussmannien", style.Final.Type)
	assert.Equal(t, 2, style.PhotosAnalyzed)

	// Persisted and attached.
	assert.Same(t, ann, st.annotations["apt-1"])
	assert.Same(t, ann, l.Annotations)
}

func TestEnrichWithoutAnalyzerUsesKeywords(t *testing.T) {
	st := newMemStore()
	p := New(st, nil)

	l := listingFixture("apt-1")
	ann, err := p.Enrich(context.Background(), &l)
	require.NoError(t, err)

	// Keyword pass still reads the description.
	kitchen := ann.ByKind(model.KindKitchen)
	require.NotNil(t, kitchen)
	assert.Equal(t, "yes", kitchen.Final.Type)
	assert.Equal(t, model.ValidationTextOnly, kitchen.Status)
	assert.Equal(t, 0, kitchen.PhotosAnalyzed)
}

func TestEnrichAllCountsFailures(t *testing.T) {
	st := newMemStore()
	st.failAnnotations = true
	p := New(st, nil)

	listings := []model.Listing{listingFixture("apt-1"), listingFixture("apt-2")}
	sum := p.EnrichAll(context.Background(), listings)
	assert.Equal(t, 0, sum.Analyzed)
	assert.Equal(t, 2, sum.Failed)
	assert.Len(t, sum.Errors, 2)
}

func TestScoreAllPersistsComposites(t *testing.T) {
	st := newMemStore()
	p := New(st, nil)

	listings := []model.Listing{listingFixture("apt-1"), listingFixture("apt-2")}
	sum := p.ScoreAll(context.Background(), listings, scoring.Default())
	assert.Equal(t, 2, sum.Scored)
	assert.Equal(t, 0, sum.Failed)

	sc, ok := st.scores["apt-1"]
	require.True(t, ok)
	assert.Equal(t, sc.Total%5, 0)
	assert.NotEmpty(t, sc.Axes)
}

func TestScoreAllRecoversFromPanic(t *testing.T) {
	st := newMemStore()
	st.panicOnScore = true
	p := New(st, nil)

	listings := []model.Listing{listingFixture("apt-1")}
	sum := p.ScoreAll(context.Background(), listings, scoring.Default())
	assert.Equal(t, 0, sum.Scored)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "panic")
}
