package engine

import (
	"fmt"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// ComparisonScenario defines a named pair of rates to compare.
type ComparisonScenario struct {
	Name            string  `json:"name"`
	OverheadPercent float64 `json:"overheadPercent"`
	TaxPercent      float64 `json:"taxPercent"`
}

// ComparisonResult holds the totals computed for a single scenario.
type ComparisonResult struct {
	Scenario ComparisonScenario `json:"scenario"`
	Totals   Totals             `json:"totals"`
	Delta    float64            `json:"delta"` // Total minus the first scenario's total
}

// CompareScenarios prices the session once and aggregates it under each
// scenario's rates, in scenario order. The session is not modified.
func CompareScenarios(scenarios []ComparisonScenario, s *model.Session, m *catalog.Matcher) []ComparisonResult {
	priced, _ := PriceMeasurements(s, m)
	lines := make([]Line, 0, len(priced))
	for _, p := range priced {
		lines = append(lines, Line{Quantity: float64(p.Measurement.Quantity), UnitPrice: p.Item.UnitPrice})
	}

	results := make([]ComparisonResult, 0, len(scenarios))
	var base float64
	for i, sc := range scenarios {
		t := Aggregate(lines, sc.OverheadPercent, sc.TaxPercent)
		if i == 0 {
			base = t.Total
		}
		results = append(results, ComparisonResult{
			Scenario: sc,
			Totals:   t,
			Delta:    t.Total - base,
		})
	}
	return results
}

// BuildDefaultScenarios generates what-if alternatives around the session's
// current rates: as entered, no overhead, overhead ±5 points and tax exempt.
func BuildDefaultScenarios(s *model.Session) []ComparisonScenario {
	oh, tax := s.OverheadPercent, s.TaxPercent
	scenarios := []ComparisonScenario{
		{Name: "Current", OverheadPercent: oh, TaxPercent: tax},
		{Name: "No overhead", OverheadPercent: 0, TaxPercent: tax},
		{Name: fmt.Sprintf("Overhead %.1f%%", oh+5), OverheadPercent: oh + 5, TaxPercent: tax},
	}
	if oh >= 5 {
		scenarios = append(scenarios, ComparisonScenario{
			Name: fmt.Sprintf("Overhead %.1f%%", oh-5), OverheadPercent: oh - 5, TaxPercent: tax,
		})
	}
	scenarios = append(scenarios, ComparisonScenario{Name: "Tax exempt", OverheadPercent: oh, TaxPercent: 0})
	return scenarios
}
