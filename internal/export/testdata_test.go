package export

import (
	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// buildTestSession creates a two-plan takeoff priced against the default catalog.
func buildTestSession() (*model.Session, *catalog.Matcher) {
	s := model.NewSession("proj-1")
	s.Name = "Kitchen Remodel"

	floor := s.AddPlan("plans/floor.png")
	floor.Name = "Floor Plan"
	floor.Scale = 48
	floor.Measurements = append(floor.Measurements,
		model.Measurement{ID: "m1", Kind: model.KindCount, Points: []model.Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.1}}, Quantity: 2, PriceListItemID: "el-001", Color: model.ColorFor(0)},
		model.Measurement{ID: "m2", Kind: model.KindLength, Points: []model.Point{{X: 0.1, Y: 0.5}, {X: 0.6, Y: 0.5}}, Quantity: 24, PriceListItemID: "fl-003", Color: model.ColorFor(1)},
		model.Measurement{ID: "m3", Kind: model.KindArea, Points: []model.Point{{X: 0.3, Y: 0.3}, {X: 0.7, Y: 0.3}, {X: 0.7, Y: 0.7}, {X: 0.3, Y: 0.7}}, Quantity: 150, PriceListItemID: "fl-001", Color: model.ColorFor(2)},
		model.Measurement{ID: "m4", Kind: model.KindCount, Points: []model.Point{{X: 0.9, Y: 0.9}}, Quantity: 1, PriceListItemID: "el-002", Color: model.ColorFor(3), Deleted: true},
	)

	bath := s.AddPlan("plans/bath.png")
	bath.Name = "Bath"
	bath.Measurements = append(bath.Measurements,
		model.Measurement{ID: "m5", Kind: model.KindCount, Points: []model.Point{{X: 0.5, Y: 0.5}}, Quantity: 1, PriceListItemID: "pl-001", Color: model.ColorFor(0)},
		model.Measurement{ID: "m6", Kind: model.KindCount, Points: []model.Point{{X: 0.4, Y: 0.5}}, Quantity: 1, PriceListItemID: "gone-001", Color: model.ColorFor(1)},
	)

	return &s, catalog.NewMatcher(model.DefaultCatalog())
}

// buildTestEstimate creates an estimate with one catalog line and one custom line.
func buildTestEstimate() model.Estimate {
	est := model.NewEstimate("proj-1", "Kitchen Remodel")
	est.Items = []model.EstimateItem{
		{ID: "item-m1", PriceListItemID: "el-001", Quantity: 2, UnitPrice: 25, Total: 50, Notes: "From takeoff - count"},
		{ID: "item-x1", PriceListItemID: model.CustomItemID, CustomName: "Vanity Demo", CustomUnit: "EA", CustomCategory: "Demolition", Quantity: 1, UnitPrice: 300, Total: 300},
	}
	est.Subtotal = 350
	est.OverheadPercent = 20
	est.OverheadAmount = 70
	est.TaxPercent = 10
	est.TaxRate = 0.1
	est.TaxAmount = 42
	est.Total = 462
	return est
}
