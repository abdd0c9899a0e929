// Package importer loads price lists from CSV and Excel files and measurement
// overlays from DXF drawings. It supports automatic delimiter detection,
// flexible column mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// DefaultCategory is used for rows that leave the category blank.
const DefaultCategory = "General"

// DefaultUnit is used for rows that leave the unit blank.
const DefaultUnit = "EA"

// ImportResult holds the results of a price list import.
type ImportResult struct {
	Items    []model.PriceListItem
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID       int
	Category int
	Name     int
	Unit     int
	Price    int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":       {"id", "item id", "code", "sku", "item code"},
	"category": {"category", "cat", "trade", "division", "group"},
	"name":     {"name", "item", "item name", "description", "desc", "material"},
	"unit":     {"unit", "uom", "units", "unit of measure"},
	"price":    {"price", "unit price", "unitprice", "cost", "unit cost", "rate"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping Category, Name, Unit, Price and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{ID: -1, Category: -1, Name: -1, Unit: -1, Price: -1}
	slots := map[string]*int{
		"id":       &mapping.ID,
		"category": &mapping.Category,
		"name":     &mapping.Name,
		"unit":     &mapping.Unit,
		"price":    &mapping.Price,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					if slot := slots[role]; *slot == -1 {
						*slot = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{ID: -1, Category: 0, Name: 1, Unit: 2, Price: 3}, false
	}
	return mapping, true
}

// ParsePrice reads a money cell such as "25", "$1,250.00" or " 4.5 ".
func ParsePrice(s string) (float64, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "$")
	t = strings.ReplaceAll(t, ",", "")
	return strconv.ParseFloat(strings.TrimSpace(t), 64)
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a price list item from a row using the given column mapping.
// Returns the item, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.PriceListItem, string, string) {
	name := getCell(row, mapping.Name)
	if name == "" {
		return model.PriceListItem{}, fmt.Sprintf("%s: Missing item name", rowLabel), ""
	}

	priceStr := getCell(row, mapping.Price)
	if priceStr == "" {
		return model.PriceListItem{}, fmt.Sprintf("%s: Missing price for '%s'", rowLabel, name), ""
	}
	price, err := ParsePrice(priceStr)
	if err != nil {
		return model.PriceListItem{}, fmt.Sprintf("%s: Invalid price '%s'", rowLabel, priceStr), ""
	}
	if price < 0 {
		return model.PriceListItem{}, fmt.Sprintf("%s: Price must not be negative", rowLabel), ""
	}

	var warnings []string
	category := getCell(row, mapping.Category)
	if category == "" {
		category = DefaultCategory
		warnings = append(warnings, fmt.Sprintf("no category, using %s", DefaultCategory))
	}
	unit := strings.ToUpper(getCell(row, mapping.Unit))
	if unit == "" {
		unit = DefaultUnit
		warnings = append(warnings, fmt.Sprintf("no unit, using %s", DefaultUnit))
	}

	item := model.PriceListItem{
		ID:        getCell(row, mapping.ID),
		Category:  category,
		Name:      name,
		Unit:      unit,
		UnitPrice: price,
	}
	if item.ID == "" {
		item.ID = "imp-" + uuid.New().String()[:8]
	}

	var warning string
	if len(warnings) > 0 {
		warning = fmt.Sprintf("%s: %s", rowLabel, strings.Join(warnings, "; "))
	}
	return item, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports price list items from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports price list items from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports price list items from the first sheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile picks the CSV or Excel importer from the file extension.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// Rows whose ID repeats an earlier row are dropped with a warning.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Name == -1 {
			missing = append(missing, "Name")
		}
		if mapping.Price == -1 {
			missing = append(missing, "Price")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 4 {
		// An unrecognized header still has a non-numeric price column.
		if _, err := ParsePrice(rows[0][3]); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		item, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if seen[item.ID] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Duplicate ID '%s', skipping", rowLabel, item.ID))
			continue
		}
		seen[item.ID] = true

		result.Items = append(result.Items, item)
	}

	return result
}

// ToCatalog groups imported items into a catalog, preserving row order.
func (r ImportResult) ToCatalog() model.Catalog {
	return model.Catalog{
		Items:  append([]model.PriceListItem{}, r.Items...),
		Custom: []model.PriceListItem{},
	}
}
