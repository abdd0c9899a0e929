package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// Line is one priced quantity fed to Aggregate. A NaN field stands for a
// value the caller did not have.
type Line struct {
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Totals is the cascaded result of an aggregation.
type Totals struct {
	Subtotal             float64 `json:"subtotal"`
	OverheadAmount       float64 `json:"overheadAmount"`
	SubtotalWithOverhead float64 `json:"subtotalWithOverhead"`
	TaxAmount            float64 `json:"taxAmount"`
	Total                float64 `json:"total"`
	Skipped              int     `json:"skipped"` // lines excluded for missing or negative values
}

// Aggregate sums quantity × unit price, then applies overhead to the subtotal
// and tax to the overhead-inclusive subtotal, in that order. Arithmetic is
// exact decimal; nothing is rounded until the result is converted back.
//
// Lines with a missing, non-finite or negative quantity or price are left out
// of the sum rather than failing the whole estimate.
func Aggregate(lines []Line, overheadPercent, taxPercent float64) Totals {
	subtotal := decimal.Zero
	skipped := 0
	for _, l := range lines {
		if !usable(l.Quantity) || !usable(l.UnitPrice) {
			skipped++
			continue
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(l.Quantity).Mul(decimal.NewFromFloat(l.UnitPrice)))
	}

	overhead := subtotal.Mul(percent(overheadPercent))
	withOverhead := subtotal.Add(overhead)
	tax := withOverhead.Mul(percent(taxPercent))
	total := withOverhead.Add(tax)

	return Totals{
		Subtotal:             subtotal.InexactFloat64(),
		OverheadAmount:       overhead.InexactFloat64(),
		SubtotalWithOverhead: withOverhead.InexactFloat64(),
		TaxAmount:            tax.InexactFloat64(),
		Total:                total.InexactFloat64(),
		Skipped:              skipped,
	}
}

// Cents returns a copy rounded to whole cents for display.
func (t Totals) Cents() Totals {
	return Totals{
		Subtotal:             roundCents(t.Subtotal),
		OverheadAmount:       roundCents(t.OverheadAmount),
		SubtotalWithOverhead: roundCents(t.SubtotalWithOverhead),
		TaxAmount:            roundCents(t.TaxAmount),
		Total:                roundCents(t.Total),
		Skipped:              t.Skipped,
	}
}

// LineTotal is quantity × unit price computed the same way Aggregate does.
func LineTotal(quantity, unitPrice float64) float64 {
	if !usable(quantity) || !usable(unitPrice) {
		return 0
	}
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice)).InexactFloat64()
}

// LinesFromItems converts estimate items into aggregation lines.
func LinesFromItems(items []model.EstimateItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return lines
}

// ApplyTotals stores aggregation results and the rates they came from on an estimate.
func ApplyTotals(e *model.Estimate, t Totals, overheadPercent, taxPercent float64) {
	e.Subtotal = t.Subtotal
	e.OverheadPercent = overheadPercent
	e.OverheadAmount = t.OverheadAmount
	e.TaxPercent = taxPercent
	e.TaxRate = taxPercent / 100
	e.TaxAmount = t.TaxAmount
	e.Total = t.Total
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func percent(p float64) decimal.Decimal {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p).Shift(-2)
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
