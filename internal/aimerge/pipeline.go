// Package aimerge turns document-analysis results into a reviewable list of
// priced items and commits the reviewed list as an estimate.
package aimerge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/engine"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// State is a pipeline phase.
type State int

const (
	Idle State = iota
	CategoriesSelected
	Processing
	ReviewPending
	Committed
	Discarded
)

func (s State) String() string {
	switch s {
	case CategoriesSelected:
		return "CategoriesSelected"
	case Processing:
		return "Processing"
	case ReviewPending:
		return "ReviewPending"
	case Committed:
		return "Committed"
	case Discarded:
		return "Discarded"
	default:
		return "Idle"
	}
}

// Sink receives committed estimates.
type Sink interface {
	AddEstimate(ctx context.Context, e model.Estimate) error
}

// ReviewItem is one analyzed line after catalog matching.
type ReviewItem struct {
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	Unit           string              `json:"unit"`
	Quantity       float64             `json:"quantity"`
	SuggestedPrice float64             `json:"suggestedPrice"`
	Total          float64             `json:"total"`
	Notes          string              `json:"notes,omitempty"`
	Item           model.PriceListItem `json:"item"`
	Matched        bool                `json:"matched"` // false when Item is a custom fallback
}

// EstimateOptions names the estimate built by Commit and carries its rates.
type EstimateOptions struct {
	ProjectID       string  `json:"projectId"`
	Name            string  `json:"name"`
	OverheadPercent float64 `json:"overheadPercent"`
	TaxPercent      float64 `json:"taxPercent"`
}

// Pipeline drives one AI estimate run. All methods are safe for concurrent
// use; Discard may be called while Process is waiting on the analyzer.
type Pipeline struct {
	analyzer Analyzer
	matcher  *catalog.Matcher
	sink     Sink

	mu         sync.Mutex
	state      State
	categories []string
	review     []ReviewItem
	generation uint64
	history    []State
}

// NewPipeline creates an idle pipeline. sink may be nil.
func NewPipeline(analyzer Analyzer, matcher *catalog.Matcher, sink Sink) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		matcher:  matcher,
		sink:     sink,
		state:    Idle,
		history:  []State{Idle},
	}
}

// State returns the current phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// History returns every phase the pipeline has entered, oldest first.
func (p *Pipeline) History() []State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]State(nil), p.history...)
}

// Categories returns the selected categories.
func (p *Pipeline) Categories() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.categories...)
}

// SelectCategories chooses the price list categories the analyzer focuses on.
func (p *Pipeline) SelectCategories(categories []string) error {
	var picked []string
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			picked = append(picked, c)
		}
	}
	if len(picked) == 0 {
		return model.ErrNoCategories
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Idle && p.state != CategoriesSelected {
		return p.invalid("select categories")
	}
	p.categories = picked
	p.enter(CategoriesSelected)
	return nil
}

// Process sends the document to the analyzer and matches the returned items
// against the catalog. On failure the pipeline returns to Idle. If Discard
// is called before the analyzer answers, the answer is dropped and
// ErrDiscarded is returned.
func (p *Pipeline) Process(ctx context.Context, doc Document) ([]ReviewItem, error) {
	p.mu.Lock()
	if p.state != CategoriesSelected {
		err := p.invalid("process")
		p.mu.Unlock()
		return nil, err
	}
	p.generation++
	gen := p.generation
	categories := append([]string(nil), p.categories...)
	p.enter(Processing)
	p.mu.Unlock()

	log.Printf("[AI] analyzing %s document for %d categories", doc.DocumentType, len(categories))
	analysis, err := p.analyzer.Analyze(ctx, doc, categories)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || p.state != Processing {
		log.Printf("[AI] dropping response for discarded run %d", gen)
		return nil, model.ErrDiscarded
	}
	if err != nil {
		p.enter(Idle)
		var reqErr *AIRequestError
		if !errors.As(err, &reqErr) {
			err = &AIRequestError{Err: err}
		}
		log.Printf("[AI] analysis failed: %v", err)
		return nil, err
	}

	p.review = p.match(analysis.Items)
	p.enter(ReviewPending)
	log.Printf("[AI] %d items ready for review", len(p.review))
	return append([]ReviewItem(nil), p.review...), nil
}

func (p *Pipeline) match(items []AnalyzedItem) []ReviewItem {
	out := make([]ReviewItem, 0, len(items))
	for _, it := range items {
		m := p.matcher.ByName(catalog.Suggestion{
			Name:      it.Name,
			Unit:      it.Unit,
			UnitPrice: it.UnitPrice,
			Category:  it.Category,
		})
		unit := it.Unit
		if unit == "" {
			unit = m.Item.Unit
		}
		category := it.Category
		if category == "" {
			category = m.Item.Category
		}
		out = append(out, ReviewItem{
			Name:           it.Name,
			Category:       category,
			Unit:           unit,
			Quantity:       it.Quantity,
			SuggestedPrice: m.Item.UnitPrice,
			Total:          engine.LineTotal(it.Quantity, m.Item.UnitPrice),
			Notes:          it.Notes,
			Item:           m.Item,
			Matched:        !m.Fallback,
		})
	}
	return out
}

// Review returns a copy of the items awaiting approval.
func (p *Pipeline) Review() ([]ReviewItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ReviewPending {
		return nil, p.invalid("review")
	}
	return append([]ReviewItem(nil), p.review...), nil
}

// Adjust overrides the quantity and price of one review item.
func (p *Pipeline) Adjust(index int, quantity, unitPrice float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ReviewPending {
		return p.invalid("adjust")
	}
	if index < 0 || index >= len(p.review) {
		return fmt.Errorf("review item %d out of range", index)
	}
	it := &p.review[index]
	it.Quantity = quantity
	it.SuggestedPrice = unitPrice
	it.Total = engine.LineTotal(quantity, unitPrice)
	return nil
}

// Remove drops one review item.
func (p *Pipeline) Remove(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ReviewPending {
		return p.invalid("remove")
	}
	if index < 0 || index >= len(p.review) {
		return fmt.Errorf("review item %d out of range", index)
	}
	p.review = append(p.review[:index], p.review[index+1:]...)
	return nil
}

// Commit builds an estimate from the reviewed items and hands it to the sink.
// If the sink fails the review stays pending so the commit can be retried.
func (p *Pipeline) Commit(ctx context.Context, opts EstimateOptions) (model.Estimate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ReviewPending {
		return model.Estimate{}, p.invalid("commit")
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return model.Estimate{}, model.ErrEstimateName
	}
	if len(p.review) == 0 {
		return model.Estimate{}, model.ErrNoMeasurements
	}

	est := model.NewEstimate(opts.ProjectID, name)
	for _, r := range p.review {
		item := model.EstimateItem{
			ID:              "item-" + uuid.New().String()[:8],
			PriceListItemID: r.Item.ID,
			Quantity:        r.Quantity,
			UnitPrice:       r.SuggestedPrice,
			Total:           r.Total,
			Notes:           r.Notes,
		}
		if !r.Matched {
			item.PriceListItemID = model.CustomItemID
			item.CustomName = r.Name
			item.CustomUnit = r.Unit
			item.CustomCategory = r.Category
		}
		est.Items = append(est.Items, item)
	}
	totals := engine.Aggregate(engine.LinesFromItems(est.Items), opts.OverheadPercent, opts.TaxPercent)
	engine.ApplyTotals(&est, totals, opts.OverheadPercent, opts.TaxPercent)

	if p.sink != nil {
		if err := p.sink.AddEstimate(ctx, est); err != nil {
			return model.Estimate{}, fmt.Errorf("saving estimate: %w", err)
		}
	}

	p.review = nil
	p.enter(Committed)
	log.Printf("[AI] committed estimate %s with %d items, total %.2f", est.ID, len(est.Items), est.Total)
	return est, nil
}

// Discard drops any selection, in-flight request or pending review and
// returns the pipeline to Idle. A committed run is left with Reset.
func (p *Pipeline) Discard() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case CategoriesSelected, Processing, ReviewPending:
	default:
		return p.invalid("discard")
	}
	p.generation++
	p.categories = nil
	p.review = nil
	p.enter(Discarded)
	p.enter(Idle)
	return nil
}

// Reset returns a committed pipeline to Idle for the next document.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Committed {
		return p.invalid("reset")
	}
	p.categories = nil
	p.enter(Idle)
	return nil
}

func (p *Pipeline) enter(s State) {
	p.state = s
	p.history = append(p.history, s)
}

func (p *Pipeline) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", model.ErrInvalidTransition, action, p.state)
}
