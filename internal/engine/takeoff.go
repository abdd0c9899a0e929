package engine

import (
	"fmt"
	"strings"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// CommitMeasurement prices the pending drawing against itemID, appends the
// resulting measurement to the session's active plan and returns the mode to Idle.
// On error neither the session nor the mode changes.
func (r Resolver) CommitMeasurement(s *model.Session, mode model.DrawingMode, m *catalog.Matcher, itemID string) (model.Measurement, model.DrawingMode, error) {
	if mode.State != model.ModeAwaitingCatalogSelection {
		return model.Measurement{}, mode, fmt.Errorf("%w: no completed drawing (%s)", model.ErrInvalidMode, mode.State)
	}
	plan := s.Active()
	if plan == nil {
		return model.Measurement{}, mode, model.ErrNoPlan
	}
	item, err := m.ByID(itemID)
	if err != nil {
		return model.Measurement{}, mode, err
	}
	qty, err := r.Resolve(mode.Kind, mode.Points, plan.Scale)
	if err != nil {
		return model.Measurement{}, mode, err
	}

	meas := model.NewMeasurement(mode.Kind, mode.Points, qty, item.ID, model.ColorFor(len(plan.Measurements)))
	if err := s.AppendMeasurement(meas); err != nil {
		return model.Measurement{}, mode, err
	}
	return meas, model.Idle(), nil
}

// CommitDrawing replays a complete drawing through the drawing-mode state
// machine and commits it, as if the points had been tapped by hand.
func (r Resolver) CommitDrawing(s *model.Session, kind model.Kind, points []model.Point, m *catalog.Matcher, itemID string) (model.Measurement, error) {
	mode, err := model.Idle().StartDrawing(kind)
	if err != nil {
		return model.Measurement{}, err
	}
	for _, p := range points {
		if mode, err = mode.AddPoint(p); err != nil {
			return model.Measurement{}, err
		}
	}
	if mode.State == model.ModeDrawing {
		if mode, err = mode.Finish(); err != nil {
			return model.Measurement{}, err
		}
	}
	meas, _, err := r.CommitMeasurement(s, mode, m, itemID)
	return meas, err
}

// SetPlanScale recalibrates one plan. Quantities of measurements already on
// the plan are left as they were computed.
func SetPlanScale(s *model.Session, planIndex int, ratio float64) (model.Scale, error) {
	if planIndex < 0 || planIndex >= len(s.Plans) {
		return 0, fmt.Errorf("%w: index %d", model.ErrNoPlan, planIndex)
	}
	plan := &s.Plans[planIndex]
	cal := NewCalibrator(plan.Scale)
	scale, err := cal.SetScale(ratio)
	if err != nil {
		return plan.Scale, err
	}
	plan.Scale = scale
	return scale, nil
}

// PricedMeasurement pairs a measurement with the catalog entry it was priced from.
type PricedMeasurement struct {
	Measurement model.Measurement
	Item        model.PriceListItem
}

// PriceMeasurements looks up every live measurement by exact ID. Measurements
// whose item is no longer in the catalog are returned separately.
func PriceMeasurements(s *model.Session, m *catalog.Matcher) (priced []PricedMeasurement, missing []model.Measurement) {
	for _, meas := range s.LiveMeasurements() {
		item, err := m.ByID(meas.PriceListItemID)
		if err != nil {
			missing = append(missing, meas)
			continue
		}
		priced = append(priced, PricedMeasurement{Measurement: meas, Item: item})
	}
	return priced, missing
}

// SessionTotals aggregates all live measurements with the session's rates.
func SessionTotals(s *model.Session, m *catalog.Matcher) Totals {
	priced, missing := PriceMeasurements(s, m)
	lines := make([]Line, 0, len(priced))
	for _, p := range priced {
		lines = append(lines, Line{Quantity: float64(p.Measurement.Quantity), UnitPrice: p.Item.UnitPrice})
	}
	t := Aggregate(lines, s.OverheadPercent, s.TaxPercent)
	t.Skipped += len(missing)
	return t
}

// GenerateEstimate builds a draft estimate from every live measurement.
func GenerateEstimate(s *model.Session, m *catalog.Matcher, name string) (model.Estimate, error) {
	if strings.TrimSpace(name) == "" {
		return model.Estimate{}, model.ErrEstimateName
	}
	if len(s.LiveMeasurements()) == 0 {
		return model.Estimate{}, model.ErrNoMeasurements
	}

	priced, missing := PriceMeasurements(s, m)
	if len(priced) == 0 {
		return model.Estimate{}, fmt.Errorf("%w: all %d measurements reference items missing from the catalog", model.ErrNoMeasurements, len(missing))
	}
	est := model.NewEstimate(s.ProjectID, strings.TrimSpace(name))
	for _, p := range priced {
		qty := float64(p.Measurement.Quantity)
		notes := p.Measurement.Notes
		if notes == "" {
			notes = "From takeoff - " + string(p.Measurement.Kind)
		}
		est.Items = append(est.Items, model.EstimateItem{
			ID:              "item-" + p.Measurement.ID,
			PriceListItemID: p.Item.ID,
			Quantity:        qty,
			UnitPrice:       p.Item.UnitPrice,
			Total:           LineTotal(qty, p.Item.UnitPrice),
			Notes:           notes,
		})
	}

	t := Aggregate(LinesFromItems(est.Items), s.OverheadPercent, s.TaxPercent)
	ApplyTotals(&est, t, s.OverheadPercent, s.TaxPercent)
	return est, nil
}
