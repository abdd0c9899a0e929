// Package export renders estimates and takeoff sessions to PDF and Excel files.
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/engine"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// rgb is a fill or stroke color.
type rgb struct {
	R, G, B int
}

// Page layout constants (US Letter portrait in mm).
const (
	pageWidth    = 215.9
	pageHeight   = 279.4
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	rowHeight    = 6.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// Table columns for the estimate line items.
var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 68, "L"},
	{"Category", 30, "L"},
	{"Qty", 20, "R"},
	{"Unit", 14, "C"},
	{"Unit Price", 24, "R"},
	{"Total", 29.9, "R"},
}

// ItemDescription resolves the display name, unit and category of an estimate
// line, using the catalog for catalog-backed items.
func ItemDescription(it model.EstimateItem, c model.Catalog) (name, unit, category string) {
	if it.IsCustom() {
		return it.CustomName, it.CustomUnit, it.CustomCategory
	}
	if entry := c.FindByID(it.PriceListItemID); entry != nil {
		return entry.Name, entry.Unit, entry.Category
	}
	return it.PriceListItemID, "", ""
}

// ExportEstimatePDF writes an estimate as a one-or-more page PDF with a QR
// stamp identifying the estimate.
func ExportEstimatePDF(path string, est model.Estimate, c model.Catalog) error {
	pdf, err := buildEstimatePDF(est, c)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

// WriteEstimatePDF streams the estimate PDF to w.
func WriteEstimatePDF(w io.Writer, est model.Estimate, c model.Catalog) error {
	pdf, err := buildEstimatePDF(est, c)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

func buildEstimatePDF(est model.Estimate, c model.Catalog) (*fpdf.Fpdf, error) {
	if len(est.Items) == 0 {
		return nil, fmt.Errorf("estimate %s has no items to export", est.ID)
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	if err := renderStamp(pdf, pageWidth-marginRight-stampSize, marginTop, NewEstimateStamp(est)); err != nil {
		return nil, err
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth-stampSize, headerHeight, est.Name, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	meta := fmt.Sprintf("Estimate %s | Project %s | %s | %s", est.ID, est.ProjectID, strings.ToUpper(string(est.Status)), est.CreatedAt)
	pdf.CellFormat(contentWidth-stampSize, 5, meta, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y := marginTop + stampSize + 6
	y = renderItemHeader(pdf, y)

	pdf.SetFont("Helvetica", "", 9)
	for i, it := range est.Items {
		if y+rowHeight > pageHeight-marginBottom-totalsHeight {
			pdf.AddPage()
			y = renderItemHeader(pdf, marginTop)
			pdf.SetFont("Helvetica", "", 9)
		}
		name, unit, category := ItemDescription(it, c)
		cells := []string{
			truncate(pdf, name, itemColumns[0].width-2),
			truncate(pdf, category, itemColumns[1].width-2),
			formatQuantity(it.Quantity),
			unit,
			money(it.UnitPrice),
			money(it.Total),
		}
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		x := marginLeft
		for j, col := range itemColumns {
			pdf.SetXY(x, y)
			pdf.CellFormat(col.width, rowHeight, cells[j], "", 0, col.align, fill, 0, "")
			x += col.width
		}
		y += rowHeight
	}

	renderTotals(pdf, y+4, est)
	return pdf, pdf.Error()
}

func renderItemHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	x := marginLeft
	for _, col := range itemColumns {
		pdf.SetXY(x, y)
		pdf.CellFormat(col.width, rowHeight+1, col.title, "", 0, col.align, true, 0, "")
		x += col.width
	}
	pdf.SetTextColor(0, 0, 0)
	return y + rowHeight + 1
}

const totalsHeight = 40.0

func renderTotals(pdf *fpdf.Fpdf, y float64, est model.Estimate) {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.4)
	pdf.Line(marginLeft, y, pageWidth-marginRight, y)
	y += 2

	rows := []struct {
		label string
		value float64
		bold  bool
	}{
		{"Subtotal", est.Subtotal, false},
		{fmt.Sprintf("Overhead (%s%%)", formatPercent(est.OverheadPercent)), est.OverheadAmount, false},
		{fmt.Sprintf("Tax (%s%%)", formatPercent(est.TaxPercent)), est.TaxAmount, false},
		{"Total", est.Total, true},
	}
	labelX := pageWidth - marginRight - 90
	for _, r := range rows {
		style := ""
		if r.bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.SetXY(labelX, y)
		pdf.CellFormat(55, 6, r.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, money(r.value), "", 0, "R", false, 0, "")
		y += 7
	}
}

// ExportTakeoffPDF renders every plan of a session as a page showing its
// live measurements in their colors, followed by a priced summary page.
func ExportTakeoffPDF(path string, s *model.Session, m *catalog.Matcher) error {
	if len(s.Plans) == 0 {
		return fmt.Errorf("session %s has no plans to export", s.ProjectID)
	}

	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, plan := range s.Plans {
		pdf.AddPage()
		renderPlanPage(pdf, plan, m, i+1)
	}

	pdf.AddPage()
	renderTakeoffSummary(pdf, s, m)

	return pdf.OutputFileAndClose(path)
}

// renderPlanPage draws one plan's measurements inside a square frame that
// stands in for the normalized image space.
func renderPlanPage(pdf *fpdf.Fpdf, plan model.Plan, m *catalog.Matcher, planNum int) {
	w, h := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%d. %s (%s)", planNum, plan.Name, scaleLabel(plan.Scale))
	pdf.CellFormat(w-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	live := plan.LiveMeasurements()
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	pdf.CellFormat(w-marginLeft-marginRight, 5, fmt.Sprintf("Measurements: %d", len(live)), "", 0, "L", false, 0, "")

	top := marginTop + headerHeight + 8
	side := math.Min(h-top-marginBottom, (w-marginLeft-marginRight)*0.6)
	ox, oy := marginLeft, top

	pdf.SetFillColor(250, 250, 250)
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.4)
	pdf.Rect(ox, oy, side, side, "FD")

	toPage := func(p model.Point) fpdf.PointType {
		return fpdf.PointType{X: ox + p.X*side, Y: oy + p.Y*side}
	}

	for _, meas := range live {
		col := parseHexColor(meas.Color)
		pdf.SetDrawColor(col.R, col.G, col.B)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetLineWidth(0.6)

		switch meas.Kind {
		case model.KindArea:
			pts := make([]fpdf.PointType, len(meas.Points))
			for i, p := range meas.Points {
				pts[i] = toPage(p)
			}
			pdf.SetAlpha(0.3, "Normal")
			pdf.Polygon(pts, "F")
			pdf.SetAlpha(1, "Normal")
			pdf.Polygon(pts, "D")
		case model.KindLength:
			for i := 0; i < len(meas.Points)-1; i++ {
				a, b := toPage(meas.Points[i]), toPage(meas.Points[i+1])
				pdf.Line(a.X, a.Y, b.X, b.Y)
			}
		default:
			for _, p := range meas.Points {
				c := toPage(p)
				pdf.Circle(c.X, c.Y, 1.5, "F")
			}
		}
	}

	renderLegend(pdf, live, m, ox+side+8, top, w-marginRight-(ox+side+8))
}

func renderLegend(pdf *fpdf.Fpdf, live []model.Measurement, m *catalog.Matcher, x, y, width float64) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x, y)
	pdf.CellFormat(width, 5, "Legend", "", 0, "L", false, 0, "")
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for _, meas := range live {
		col := parseHexColor(meas.Color)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(x, y+0.75, 3, 3, "F")

		name := meas.PriceListItemID
		unit := ""
		if item, err := m.ByID(meas.PriceListItemID); err == nil {
			name, unit = item.Name, item.Unit
		}
		line := fmt.Sprintf("%s: %d %s", name, meas.Quantity, unit)
		pdf.SetXY(x+4, y)
		pdf.CellFormat(width-4, 4.5, truncate(pdf, line, width-4), "", 0, "L", false, 0, "")
		y += 5
	}
}

func renderTakeoffSummary(pdf *fpdf.Fpdf, s *model.Session, m *catalog.Matcher) {
	w, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(w-marginLeft-marginRight, 10, "Takeoff Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, w-marginRight, marginTop+12)

	totals := engine.SessionTotals(s, m).Cents()
	stats := []struct {
		label string
		value string
	}{
		{"Plans", strconv.Itoa(len(s.Plans))},
		{"Measurements", strconv.Itoa(len(s.LiveMeasurements()))},
		{"Subtotal", money(totals.Subtotal)},
		{fmt.Sprintf("Overhead (%s%%)", formatPercent(s.OverheadPercent)), money(totals.OverheadAmount)},
		{fmt.Sprintf("Tax (%s%%)", formatPercent(s.TaxPercent)), money(totals.TaxAmount)},
		{"Total", money(totals.Total)},
	}
	if totals.Skipped > 0 {
		stats = append(stats, struct {
			label string
			value string
		}{"Unpriced measurements", strconv.Itoa(totals.Skipped)})
	}

	y := marginTop + 18
	for _, st := range stats {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, st.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, st.value, "", 0, "R", false, 0, "")
		y += 7
	}
}

func scaleLabel(s model.Scale) string {
	if p := model.PresetFor(s); p != nil {
		return p.Label
	}
	return s.String()
}

// parseHexColor reads "#RRGGBB"; anything else is drawn gray.
func parseHexColor(s string) rgb {
	c, err := colorful.Hex(s)
	if err != nil {
		return rgb{128, 128, 128}
	}
	r, g, b := c.RGB255()
	return rgb{R: int(r), G: int(g), B: int(b)}
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func money(v float64) string {
	neg := v < 0
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("$%s.%02d", b.String(), cents%100)
	if neg {
		return "-" + out
	}
	return out
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
