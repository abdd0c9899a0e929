package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/engine"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

const (
	estimateSheet     = "Estimate"
	measurementsSheet = "Measurements"
	moneyFormat       = `"$"#,##0.00`
)

var estimateHeader = []any{"Description", "Category", "Quantity", "Unit", "Unit Price", "Total", "Notes"}

var measurementHeader = []any{"Plan", "Scale", "ID", "Type", "Item", "Quantity", "Unit", "Unit Price", "Total", "Color"}

// ExportEstimateXLSX writes an estimate's line items and totals to a workbook.
func ExportEstimateXLSX(path string, est model.Estimate, c model.Catalog) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), estimateSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	rows := [][]any{
		{est.Name},
		{"Estimate " + est.ID, "Project " + est.ProjectID, string(est.Status), est.CreatedAt},
		{},
		estimateHeader,
	}
	headerRow := len(rows)
	for _, it := range est.Items {
		name, unit, category := ItemDescription(it, c)
		rows = append(rows, []any{name, category, it.Quantity, unit, it.UnitPrice, it.Total, it.Notes})
	}
	lastItemRow := len(rows)

	rows = append(rows,
		[]any{},
		[]any{"", "", "", "", "Subtotal", est.Subtotal},
		[]any{"", "", "", "", fmt.Sprintf("Overhead (%s%%)", formatPercent(est.OverheadPercent)), est.OverheadAmount},
		[]any{"", "", "", "", fmt.Sprintf("Tax (%s%%)", formatPercent(est.TaxPercent)), est.TaxAmount},
		[]any{"", "", "", "", "Total", est.Total},
	)

	if err := writeRows(f, estimateSheet, rows); err != nil {
		return err
	}

	if err := styleRange(f, estimateSheet, 1, 1, 1, 1, styles.title); err != nil {
		return err
	}
	if err := styleRange(f, estimateSheet, 1, headerRow, len(estimateHeader), headerRow, styles.header); err != nil {
		return err
	}
	if lastItemRow > headerRow {
		if err := styleRange(f, estimateSheet, 5, headerRow+1, 6, lastItemRow, styles.money); err != nil {
			return err
		}
	}
	if err := styleRange(f, estimateSheet, 6, lastItemRow+2, 6, len(rows), styles.money); err != nil {
		return err
	}
	if err := styleRange(f, estimateSheet, 5, len(rows), 6, len(rows), styles.total); err != nil {
		return err
	}

	widths := map[string]float64{"A": 36, "B": 18, "C": 10, "D": 8, "E": 16, "F": 14, "G": 30}
	for col, w := range widths {
		if err := f.SetColWidth(estimateSheet, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ExportTakeoffXLSX writes every live measurement of a session to one sheet,
// priced from the catalog, with the session totals underneath.
func ExportTakeoffXLSX(path string, s *model.Session, m *catalog.Matcher) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), measurementsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	rows := [][]any{measurementHeader}
	for _, plan := range s.Plans {
		for _, meas := range plan.LiveMeasurements() {
			name, unit := meas.PriceListItemID, ""
			var price, total any = "", ""
			if item, err := m.ByID(meas.PriceListItemID); err == nil {
				name, unit = item.Name, item.Unit
				price = item.UnitPrice
				total = engine.LineTotal(float64(meas.Quantity), item.UnitPrice)
			}
			rows = append(rows, []any{plan.Name, scaleLabel(plan.Scale), meas.ID, string(meas.Kind), name, meas.Quantity, unit, price, total, meas.Color})
		}
	}
	lastItemRow := len(rows)

	totals := engine.SessionTotals(s, m).Cents()
	rows = append(rows,
		[]any{},
		[]any{"", "", "", "", "", "", "", "Subtotal", totals.Subtotal},
		[]any{"", "", "", "", "", "", "", "Overhead", totals.OverheadAmount},
		[]any{"", "", "", "", "", "", "", "Tax", totals.TaxAmount},
		[]any{"", "", "", "", "", "", "", "Total", totals.Total},
	)

	if err := writeRows(f, measurementsSheet, rows); err != nil {
		return err
	}
	if err := styleRange(f, measurementsSheet, 1, 1, len(measurementHeader), 1, styles.header); err != nil {
		return err
	}
	if lastItemRow > 1 {
		if err := styleRange(f, measurementsSheet, 8, 2, 9, lastItemRow, styles.money); err != nil {
			return err
		}
	}
	if err := styleRange(f, measurementsSheet, 9, lastItemRow+2, 9, len(rows), styles.money); err != nil {
		return err
	}
	if err := f.SetColWidth(measurementsSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(measurementsSheet, "E", "E", 32); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	title, header, money, total int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	fmtMoney := moneyFormat

	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"282828"}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &fmtMoney}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &fmtMoney}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	return s, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("failed to create cell reference: %w", err)
			}
			if err := f.SetCellValue(sheet, ref, cell); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", ref, err)
			}
		}
	}
	return nil
}

func styleRange(f *excelize.File, sheet string, col1, row1, col2, row2, style int) error {
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}
