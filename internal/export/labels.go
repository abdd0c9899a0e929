package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// LabelInfo holds the data encoded into each measurement label's QR code.
type LabelInfo struct {
	ProjectID     string `json:"project"`
	PlanName      string `json:"plan"`
	MeasurementID string `json:"measurement"`
	ItemID        string `json:"item"`
	ItemName      string `json:"name"`
	Kind          string `json:"type"`
	Quantity      int    `json:"quantity"`
	Unit          string `json:"unit"`
	Color         string `json:"color"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
	stampSize       = 24.0
)

// CollectLabels builds one label per live measurement across all plans.
// Measurements whose item left the catalog keep the raw item ID as name.
func CollectLabels(s *model.Session, m *catalog.Matcher) []LabelInfo {
	var labels []LabelInfo
	for _, plan := range s.Plans {
		for _, meas := range plan.LiveMeasurements() {
			info := LabelInfo{
				ProjectID:     s.ProjectID,
				PlanName:      plan.Name,
				MeasurementID: meas.ID,
				ItemID:        meas.PriceListItemID,
				ItemName:      meas.PriceListItemID,
				Kind:          string(meas.Kind),
				Quantity:      meas.Quantity,
				Color:         meas.Color,
			}
			if item, err := m.ByID(meas.PriceListItemID); err == nil {
				info.ItemName = item.Name
				info.Unit = item.Unit
			}
			labels = append(labels, info)
		}
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded labels, one per live measurement,
// for tagging material staged on site. Labels are laid out on a standard
// label sheet format (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportLabels(path string, s *model.Session, m *catalog.Matcher) error {
	labels := CollectLabels(s, m)
	if len(labels) == 0 {
		return fmt.Errorf("no measurements to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.MeasurementID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	imgName := "qr_label_" + info.MeasurementID
	if err := registerQR(pdf, imgName, info); err != nil {
		return err
	}

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	// Color swatch matches the overlay on the plan.
	col := parseHexColor(info.Color)
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.Rect(x+labelPadding, y+labelPadding, 2, labelHeight-2*labelPadding, "F")

	textX := x + labelPadding + 4
	textWidth := labelWidth - qrSize - 3*labelPadding - 4

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding+1)
	pdf.CellFormat(textWidth, 4, truncate(pdf, info.ItemName, textWidth), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+6)
	pdf.CellFormat(textWidth, 3.5, fmt.Sprintf("%d %s (%s)", info.Quantity, info.Unit, info.Kind), "", 0, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+10)
	pdf.CellFormat(textWidth, 3.5, truncate(pdf, info.PlanName, textWidth), "", 0, "L", false, 0, "")

	pdf.SetTextColor(128, 128, 128)
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetXY(textX, y+labelPadding+14)
	pdf.CellFormat(textWidth, 3, info.ProjectID+" / "+info.MeasurementID, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	return nil
}

// EstimateStamp is the payload of the QR code printed on estimate PDFs.
type EstimateStamp struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project"`
	Name      string  `json:"name"`
	Total     float64 `json:"total"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

func NewEstimateStamp(est model.Estimate) EstimateStamp {
	return EstimateStamp{
		ID:        est.ID,
		ProjectID: est.ProjectID,
		Name:      est.Name,
		Total:     est.Total,
		Status:    string(est.Status),
		CreatedAt: est.CreatedAt,
	}
}

// renderStamp places the estimate's QR code with its top-left corner at x, y.
func renderStamp(pdf *fpdf.Fpdf, x, y float64, stamp EstimateStamp) error {
	imgName := "qr_estimate_" + stamp.ID
	if err := registerQR(pdf, imgName, stamp); err != nil {
		return err
	}
	pdf.ImageOptions(imgName, x, y, stampSize, stampSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

// registerQR encodes v as JSON into a QR PNG registered under name.
func registerQR(pdf *fpdf.Fpdf, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal QR payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	return nil
}
