package aimerge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

type analyzerFunc func(ctx context.Context, doc Document, categories []string) (Analysis, error)

func (f analyzerFunc) Analyze(ctx context.Context, doc Document, categories []string) (Analysis, error) {
	return f(ctx, doc, categories)
}

type memorySink struct {
	mu        sync.Mutex
	estimates []model.Estimate
	err       error
}

func (s *memorySink) AddEstimate(_ context.Context, e model.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.estimates = append(s.estimates, e)
	return nil
}

func price(v float64) *float64 { return &v }

func fixedAnalysis(items ...AnalyzedItem) Analyzer {
	return analyzerFunc(func(context.Context, Document, []string) (Analysis, error) {
		return Analysis{Items: items}, nil
	})
}

func newTestPipeline(a Analyzer, sink Sink) *Pipeline {
	return NewPipeline(a, catalog.NewMatcher(model.DefaultCatalog()), sink)
}

var doc = Document{ImageData: "data:image/png;base64,AAAA", DocumentType: "blueprint"}

func TestPipelineHappyPath(t *testing.T) {
	sink := &memorySink{}
	var gotCategories []string
	a := analyzerFunc(func(_ context.Context, _ Document, categories []string) (Analysis, error) {
		gotCategories = categories
		return Analysis{Items: []AnalyzedItem{
			{Name: "outlet", Quantity: 3, Unit: "EA", UnitPrice: price(40), Category: "Electrical"},
			{Name: "Skylight", Quantity: 2, Unit: "", UnitPrice: price(500), Category: "Roofing"},
		}}, nil
	})
	p := newTestPipeline(a, sink)

	require.NoError(t, p.SelectCategories([]string{"Electrical", " ", "Roofing"}))
	assert.Equal(t, []string{"Electrical", "Roofing"}, p.Categories())

	items, err := p.Process(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electrical", "Roofing"}, gotCategories)
	assert.Equal(t, ReviewPending, p.State())
	require.Len(t, items, 2)

	// Matched items use the catalog price, not the AI price.
	assert.True(t, items[0].Matched)
	assert.Equal(t, "el-001", items[0].Item.ID)
	assert.Equal(t, 25.0, items[0].SuggestedPrice)
	assert.Equal(t, 75.0, items[0].Total)

	// Unmatched items fall back to a custom entry at the AI price.
	assert.False(t, items[1].Matched)
	assert.Equal(t, model.CustomItemID, items[1].Item.ID)
	assert.Equal(t, "EA", items[1].Unit)
	assert.Equal(t, 500.0, items[1].SuggestedPrice)
	assert.Equal(t, 1000.0, items[1].Total)

	est, err := p.Commit(context.Background(), EstimateOptions{ProjectID: "proj-9", Name: "AI Estimate", OverheadPercent: 20, TaxPercent: 10})
	require.NoError(t, err)
	assert.Equal(t, Committed, p.State())
	require.Len(t, est.Items, 2)
	assert.Equal(t, "el-001", est.Items[0].PriceListItemID)
	assert.Equal(t, model.CustomItemID, est.Items[1].PriceListItemID)
	assert.Equal(t, "Skylight", est.Items[1].CustomName)
	assert.Equal(t, "Roofing", est.Items[1].CustomCategory)
	assert.True(t, est.Items[1].IsCustom())

	assert.InDelta(t, 1075, est.Subtotal, 1e-9)
	assert.InDelta(t, 215, est.OverheadAmount, 1e-9)
	assert.InDelta(t, 129, est.TaxAmount, 1e-9)
	assert.InDelta(t, 1419, est.Total, 1e-9)
	assert.Equal(t, model.EstimateDraft, est.Status)

	require.Len(t, sink.estimates, 1)
	assert.Equal(t, est.ID, sink.estimates[0].ID)

	assert.Equal(t, []State{Idle, CategoriesSelected, Processing, ReviewPending, Committed}, p.History())
}

func TestPipelineMissingAIPriceDefaultsToZero(t *testing.T) {
	p := newTestPipeline(fixedAnalysis(AnalyzedItem{Name: "Mystery Widget", Quantity: 4}), nil)
	require.NoError(t, p.SelectCategories([]string{"Framing"}))

	items, err := p.Process(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0.0, items[0].SuggestedPrice)
	assert.Equal(t, 0.0, items[0].Total)
}

func TestPipelineAnalyzerFailureReturnsToIdle(t *testing.T) {
	a := analyzerFunc(func(context.Context, Document, []string) (Analysis, error) {
		return Analysis{}, errors.New("connection refused")
	})
	p := newTestPipeline(a, nil)
	require.NoError(t, p.SelectCategories([]string{"Electrical"}))

	_, err := p.Process(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAIRequest))

	var reqErr *AIRequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 0, reqErr.StatusCode)
	assert.Equal(t, Idle, p.State())
}

func TestPipelineDiscardDuringProcessing(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	a := analyzerFunc(func(context.Context, Document, []string) (Analysis, error) {
		close(started)
		<-release
		return Analysis{Items: []AnalyzedItem{{Name: "outlet", Quantity: 1}}}, nil
	})
	sink := &memorySink{}
	p := newTestPipeline(a, sink)
	require.NoError(t, p.SelectCategories([]string{"Electrical"}))

	done := make(chan error, 1)
	go func() {
		_, err := p.Process(context.Background(), doc)
		done <- err
	}()

	<-started
	require.NoError(t, p.Discard())
	close(release)

	err := <-done
	assert.True(t, errors.Is(err, model.ErrDiscarded))
	assert.Equal(t, Idle, p.State())
	assert.Empty(t, sink.estimates)

	_, err = p.Review()
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))

	h := p.History()
	assert.Equal(t, []State{Idle, CategoriesSelected, Processing, Discarded, Idle}, h)
}

func TestPipelineDiscardFromReview(t *testing.T) {
	p := newTestPipeline(fixedAnalysis(AnalyzedItem{Name: "outlet", Quantity: 1}), nil)
	require.NoError(t, p.SelectCategories([]string{"Electrical"}))
	_, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	require.NoError(t, p.Discard())
	assert.Equal(t, Idle, p.State())
	assert.Empty(t, p.Categories())

	_, err = p.Commit(context.Background(), EstimateOptions{Name: "x"})
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
}

func TestPipelineInvalidTransitions(t *testing.T) {
	p := newTestPipeline(fixedAnalysis(), nil)

	_, err := p.Process(context.Background(), doc)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))

	assert.True(t, errors.Is(p.Discard(), model.ErrInvalidTransition))
	assert.True(t, errors.Is(p.Reset(), model.ErrInvalidTransition))
	assert.True(t, errors.Is(p.SelectCategories(nil), model.ErrNoCategories))
	assert.True(t, errors.Is(p.SelectCategories([]string{"", "  "}), model.ErrNoCategories))

	_, err = p.Review()
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
	assert.True(t, errors.Is(p.Adjust(0, 1, 1), model.ErrInvalidTransition))

	committed := newTestPipeline(fixedAnalysis(AnalyzedItem{Name: "outlet", Quantity: 2}), nil)
	require.NoError(t, committed.SelectCategories([]string{"Electrical"}))
	_, err = committed.Process(context.Background(), doc)
	require.NoError(t, err)
	_, err = committed.Commit(context.Background(), EstimateOptions{Name: "Kitchen"})
	require.NoError(t, err)

	assert.True(t, errors.Is(committed.Discard(), model.ErrInvalidTransition))
	assert.Equal(t, Committed, committed.State())
	assert.NotContains(t, committed.History(), Discarded)
	require.NoError(t, committed.Reset())
	assert.Equal(t, Idle, committed.State())
}

func TestPipelineCommitValidation(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	p := newTestPipeline(fixedAnalysis(AnalyzedItem{Name: "outlet", Quantity: 2}), sink)
	require.NoError(t, p.SelectCategories([]string{"Electrical"}))
	_, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	_, err = p.Commit(context.Background(), EstimateOptions{Name: "  "})
	assert.True(t, errors.Is(err, model.ErrEstimateName))

	_, err = p.Commit(context.Background(), EstimateOptions{Name: "Retry me"})
	require.Error(t, err)
	assert.Equal(t, ReviewPending, p.State())

	sink.err = nil
	_, err = p.Commit(context.Background(), EstimateOptions{Name: "Retry me"})
	require.NoError(t, err)
	assert.Len(t, sink.estimates, 1)

	require.NoError(t, p.Reset())
	assert.NoError(t, p.SelectCategories([]string{"Plumbing"}))
}

func TestPipelineAdjustAndRemove(t *testing.T) {
	p := newTestPipeline(fixedAnalysis(
		AnalyzedItem{Name: "outlet", Quantity: 2},
		AnalyzedItem{Name: "Recessed Light", Quantity: 4},
	), nil)
	require.NoError(t, p.SelectCategories([]string{"Electrical"}))
	_, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	require.NoError(t, p.Adjust(0, 5, 30))
	require.NoError(t, p.Remove(1))
	assert.Error(t, p.Remove(3))

	items, err := p.Review()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 150.0, items[0].Total)

	// Review returns a copy.
	items[0].Total = 0
	again, _ := p.Review()
	assert.Equal(t, 150.0, again[0].Total)

	est, err := p.Commit(context.Background(), EstimateOptions{Name: "Adjusted"})
	require.NoError(t, err)
	assert.InDelta(t, 150, est.Total, 1e-9)
}

func TestPipelineCommitEmptyReview(t *testing.T) {
	p := newTestPipeline(fixedAnalysis(), nil)
	require.NoError(t, p.SelectCategories([]string{"Electrical"}))
	_, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	_, err = p.Commit(context.Background(), EstimateOptions{Name: "Nothing"})
	assert.True(t, errors.Is(err, model.ErrNoMeasurements))
}
