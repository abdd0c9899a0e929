package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

func newTakeoff(t *testing.T) (*model.Session, *catalog.Matcher) {
	t.Helper()
	s := model.NewSession("proj-1")
	s.AddPlan("file:///plans/page1.png")
	return &s, catalog.NewMatcher(model.DefaultCatalog())
}

func drawCount(t *testing.T, pts ...model.Point) model.DrawingMode {
	t.Helper()
	mode, err := model.Idle().StartDrawing(model.KindCount)
	require.NoError(t, err)
	for _, p := range pts {
		mode, err = mode.AddPoint(p)
		require.NoError(t, err)
	}
	return mode
}

func drawShape(t *testing.T, kind model.Kind, pts ...model.Point) model.DrawingMode {
	t.Helper()
	mode, err := model.Idle().StartDrawing(kind)
	require.NoError(t, err)
	for _, p := range pts {
		mode, err = mode.AddPoint(p)
		require.NoError(t, err)
	}
	mode, err = mode.Finish()
	require.NoError(t, err)
	return mode
}

func TestOutletCountToEstimate(t *testing.T) {
	s, m := newTakeoff(t)
	mode := drawCount(t, model.Point{X: 0.1, Y: 0.1}, model.Point{X: 0.5, Y: 0.2}, model.Point{X: 0.8, Y: 0.7})
	require.Equal(t, model.ModeAwaitingCatalogSelection, mode.State)

	r := DefaultResolver()
	meas, mode, err := r.CommitMeasurement(s, mode, m, "el-001")
	require.NoError(t, err)
	assert.Equal(t, model.ModeIdle, mode.State)
	assert.Equal(t, 3, meas.Quantity)
	assert.Equal(t, model.MeasurementColors[0], meas.Color)

	est, err := GenerateEstimate(s, m, "Kitchen Remodel")
	require.NoError(t, err)
	require.Len(t, est.Items, 1)

	item := est.Items[0]
	assert.Equal(t, "item-"+meas.ID, item.ID)
	assert.Equal(t, "el-001", item.PriceListItemID)
	assert.Equal(t, "From takeoff - count", item.Notes)
	assert.InDelta(t, 75, item.Total, eps)

	assert.InDelta(t, 75, est.Subtotal, eps)
	assert.InDelta(t, 15, est.OverheadAmount, eps)
	assert.InDelta(t, 9.45, est.TaxAmount, eps)
	assert.InDelta(t, 99.45, est.Total, eps)
	assert.Equal(t, model.EstimateDraft, est.Status)
	assert.Equal(t, "proj-1", est.ProjectID)
}

func TestCommitUsesPlanScale(t *testing.T) {
	s, m := newTakeoff(t)
	_, err := SetPlanScale(s, 0, 2)
	require.NoError(t, err)

	mode := drawShape(t, model.KindArea, rect(0, 0, 0.1, 0.2)...)
	meas, _, err := DefaultResolver().CommitMeasurement(s, mode, m, "fl-001")
	require.NoError(t, err)
	assert.Equal(t, 80000, meas.Quantity)
}

func TestCommitRequiresCompletedDrawing(t *testing.T) {
	s, m := newTakeoff(t)
	mode, err := model.Idle().StartDrawing(model.KindLength)
	require.NoError(t, err)
	mode, err = mode.AddPoint(model.Point{X: 0.1, Y: 0.1})
	require.NoError(t, err)

	_, got, err := DefaultResolver().CommitMeasurement(s, mode, m, "fr-003")
	assert.True(t, errors.Is(err, model.ErrInvalidMode))
	assert.Equal(t, mode, got)
	assert.Empty(t, s.LiveMeasurements())
}

func TestCommitUnknownItemLeavesStateUnchanged(t *testing.T) {
	s, m := newTakeoff(t)
	mode := drawCount(t, model.Point{X: 0.4, Y: 0.4})

	_, got, err := DefaultResolver().CommitMeasurement(s, mode, m, "nope-999")
	assert.True(t, errors.Is(err, model.ErrCatalogItemNotFound))
	assert.Equal(t, model.ModeAwaitingCatalogSelection, got.State)
	assert.Empty(t, s.LiveMeasurements())
}

func TestCommitWithoutPlan(t *testing.T) {
	s := model.NewSession("p")
	m := catalog.NewMatcher(model.DefaultCatalog())
	mode := drawCount(t, model.Point{X: 0.4, Y: 0.4})

	_, _, err := DefaultResolver().CommitMeasurement(&s, mode, m, "el-001")
	assert.True(t, errors.Is(err, model.ErrNoPlan))
}

func TestColorsCycle(t *testing.T) {
	s, m := newTakeoff(t)
	r := DefaultResolver()
	for i := 0; i < len(model.MeasurementColors)+1; i++ {
		meas, _, err := r.CommitMeasurement(s, drawCount(t, model.Point{X: 0.5, Y: 0.5}), m, "el-002")
		require.NoError(t, err)
		assert.Equal(t, model.MeasurementColors[i%len(model.MeasurementColors)], meas.Color)
	}
}

func TestRecalibrationDoesNotRescaleExisting(t *testing.T) {
	s, m := newTakeoff(t)
	r := DefaultResolver()
	mode := drawShape(t, model.KindLength, model.Point{X: 0, Y: 0}, model.Point{X: 0.3, Y: 0.4})
	meas, _, err := r.CommitMeasurement(s, mode, m, "fl-003")
	require.NoError(t, err)
	require.Equal(t, 500, meas.Quantity)

	_, err = SetPlanScale(s, 0, 48)
	require.NoError(t, err)
	assert.Equal(t, 500, s.LiveMeasurements()[0].Quantity)

	mode = drawShape(t, model.KindLength, model.Point{X: 0, Y: 0}, model.Point{X: 0.3, Y: 0.4})
	meas, _, err = r.CommitMeasurement(s, mode, m, "fl-003")
	require.NoError(t, err)
	assert.Equal(t, 24000, meas.Quantity)
}

func TestSetPlanScaleRejects(t *testing.T) {
	s, _ := newTakeoff(t)
	_, err := SetPlanScale(s, 0, 96)
	require.NoError(t, err)

	got, err := SetPlanScale(s, 0, -1)
	assert.True(t, errors.Is(err, model.ErrInvalidScale))
	assert.Equal(t, model.Scale(96), got)
	assert.Equal(t, model.Scale(96), s.Plans[0].Scale)

	_, err = SetPlanScale(s, 3, 48)
	assert.True(t, errors.Is(err, model.ErrNoPlan))
}

func TestSoftDeleteExcludedFromTotals(t *testing.T) {
	s, m := newTakeoff(t)
	r := DefaultResolver()
	keep, _, err := r.CommitMeasurement(s, drawCount(t, model.Point{X: 0.1, Y: 0.1}), m, "el-001")
	require.NoError(t, err)
	drop, _, err := r.CommitMeasurement(s, drawCount(t, model.Point{X: 0.2, Y: 0.2}), m, "pl-001")
	require.NoError(t, err)

	require.NoError(t, s.RemoveMeasurement(drop.ID))
	assert.True(t, errors.Is(s.RemoveMeasurement(drop.ID), model.ErrMeasurementNotFound))

	est, err := GenerateEstimate(s, m, "After delete")
	require.NoError(t, err)
	require.Len(t, est.Items, 1)
	assert.Equal(t, "item-"+keep.ID, est.Items[0].ID)
	assert.InDelta(t, 25, est.Subtotal, eps)

	// The deleted record is still stored.
	assert.Len(t, s.Plans[0].Measurements, 2)
}

func TestGenerateEstimateValidation(t *testing.T) {
	s, m := newTakeoff(t)

	_, err := GenerateEstimate(s, m, "Empty")
	assert.True(t, errors.Is(err, model.ErrNoMeasurements))

	_, _, err = DefaultResolver().CommitMeasurement(s, drawCount(t, model.Point{X: 0.5, Y: 0.5}), m, "el-001")
	require.NoError(t, err)

	_, err = GenerateEstimate(s, m, "   ")
	assert.True(t, errors.Is(err, model.ErrEstimateName))
}

func TestGenerateEstimateAllItemsMissing(t *testing.T) {
	s, m := newTakeoff(t)
	orphan := model.NewMeasurement(model.KindCount, []model.Point{{X: 0.1, Y: 0.1}}, 3, "gone-001", "#000000")
	require.NoError(t, s.AppendMeasurement(orphan))

	_, err := GenerateEstimate(s, m, "Orphans")
	assert.True(t, errors.Is(err, model.ErrNoMeasurements))

	_, _, err = DefaultResolver().CommitMeasurement(s, drawCount(t, model.Point{X: 0.5, Y: 0.5}), m, "el-001")
	require.NoError(t, err)
	est, err := GenerateEstimate(s, m, "Partly priced")
	require.NoError(t, err)
	require.Len(t, est.Items, 1)
	assert.Equal(t, "el-001", est.Items[0].PriceListItemID)
}

func TestGenerateEstimateSpansPlans(t *testing.T) {
	s, m := newTakeoff(t)
	r := DefaultResolver()
	_, _, err := r.CommitMeasurement(s, drawCount(t, model.Point{X: 0.5, Y: 0.5}), m, "el-001")
	require.NoError(t, err)

	s.AddPlan("file:///plans/page2.png")
	_, _, err = r.CommitMeasurement(s, drawCount(t, model.Point{X: 0.5, Y: 0.5}, model.Point{X: 0.6, Y: 0.6}), m, "el-003")
	require.NoError(t, err)

	est, err := GenerateEstimate(s, m, "Both pages")
	require.NoError(t, err)
	require.Len(t, est.Items, 2)
	assert.InDelta(t, 25+2*22, est.Subtotal, eps)
}

func TestSessionTotalsCountsMissingItems(t *testing.T) {
	s, m := newTakeoff(t)
	_, _, err := DefaultResolver().CommitMeasurement(s, drawCount(t, model.Point{X: 0.5, Y: 0.5}), m, "el-001")
	require.NoError(t, err)

	// A measurement whose item was later removed from the catalog.
	orphan := model.NewMeasurement(model.KindCount, []model.Point{{X: 0.1, Y: 0.1}}, 1, "gone-001", "#000000")
	require.NoError(t, s.AppendMeasurement(orphan))

	got := SessionTotals(s, m)
	assert.InDelta(t, 25, got.Subtotal, eps)
	assert.Equal(t, 1, got.Skipped)

	priced, missing := PriceMeasurements(s, m)
	assert.Len(t, priced, 1)
	require.Len(t, missing, 1)
	assert.Equal(t, orphan.ID, missing[0].ID)
}

func TestCommitDrawing(t *testing.T) {
	s, m := newTakeoff(t)
	r := DefaultResolver()

	room := []model.Point{{X: 0, Y: 0}, {X: 0.1, Y: 0}, {X: 0.1, Y: 0.1}, {X: 0, Y: 0.1}}
	meas, err := r.CommitDrawing(s, model.KindArea, room, m, "fl-001")
	require.NoError(t, err)
	assert.Equal(t, 10000, meas.Quantity)
	assert.Equal(t, model.KindArea, meas.Kind)

	outlets := []model.Point{{X: 0.2, Y: 0.2}, {X: 0.3, Y: 0.3}}
	meas, err = r.CommitDrawing(s, model.KindCount, outlets, m, "el-001")
	require.NoError(t, err)
	assert.Equal(t, 2, meas.Quantity)
	assert.Equal(t, model.MeasurementColors[1], meas.Color)

	_, err = r.CommitDrawing(s, model.KindLength, []model.Point{{X: 0.2, Y: 0.2}}, m, "fl-003")
	assert.ErrorIs(t, err, model.ErrInsufficientPoints)

	_, err = r.CommitDrawing(s, model.KindCount, []model.Point{{X: 2, Y: 0}}, m, "el-001")
	assert.ErrorIs(t, err, model.ErrPointOutOfBounds)

	assert.Len(t, s.LiveMeasurements(), 2)
}
