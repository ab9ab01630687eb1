// Package importer provides CSV and Excel import functionality for cut lists
// and stock sheet lists. It supports automatic delimiter detection, flexible
// column mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/CutStock/internal/model"
	"github.com/xuri/excelize/v2"
)

// Kind selects what the imported rows describe.
type Kind int

const (
	// KindProducts rows are demand entries: label, width, height, quantity.
	KindProducts Kind = iota
	// KindStocks rows are sheets: label, width, height, quantity.
	// Each row yields quantity identical stocks.
	KindStocks
)

func (k Kind) String() string {
	if k == KindStocks {
		return "stock"
	}
	return "product"
}

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Products []model.Product
	Stocks   []model.Stock
	Labels   []string // Stock labels, parallel to Stocks
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Quantity int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":    {"label", "name", "part", "part name", "product", "sheet", "stock", "description", "desc", "piece", "item"},
	"width":    {"width", "w", "length", "len", "x"},
	"height":   {"height", "h", "depth", "d", "y"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
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
// Returns the mapping and true if a header was detected, or a default
// positional mapping (label, width, height, quantity) and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Width: -1, Height: -1, Quantity: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				var slot *int
				switch role {
				case "label":
					slot = &mapping.Label
				case "width":
					slot = &mapping.Width
				case "height":
					slot = &mapping.Height
				case "quantity":
					slot = &mapping.Quantity
				}
				if *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Label: 0, Width: 1, Height: 2, Quantity: 3}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

type rowValues struct {
	label         string
	width, height int
	quantity      int
}

// parseRow extracts label, size and quantity using the given column mapping.
// Sizes are whole grid cells. A missing quantity defaults to 1 with a warning.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (rowValues, string, string) {
	var v rowValues
	var warning string
	v.label = getCell(row, mapping.Label)

	parseDim := func(name string, idx int) (int, string) {
		s := getCell(row, idx)
		if s == "" {
			return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int(f)) {
				return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
			}
			n = int(f)
		}
		return n, ""
	}

	var errMsg string
	if v.width, errMsg = parseDim("width", mapping.Width); errMsg != "" {
		return v, errMsg, ""
	}
	if v.height, errMsg = parseDim("height", mapping.Height); errMsg != "" {
		return v, errMsg, ""
	}

	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		v.quantity = 1
		warning = fmt.Sprintf("%s: Missing quantity, defaulting to 1", rowLabel)
	} else {
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return v, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), ""
		}
		v.quantity = qty
	}

	if v.width <= 0 || v.height <= 0 || v.quantity <= 0 {
		return v, fmt.Sprintf("%s: Width, height, and quantity must be positive", rowLabel), ""
	}
	return v, "", warning
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

// Import reads path as CSV or Excel, chosen by file extension.
func Import(path string, kind Kind) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path, kind)
	default:
		return ImportCSV(path, kind)
	}
}

// ImportCSV imports rows from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string, kind Kind) ImportResult {
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

	res := ImportCSVFromReader(bytes.NewReader(data), delimiter, kind)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

// ImportCSVFromReader imports rows from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune, kind Kind) ImportResult {
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

	return importFromRows(records, "Line", kind)
}

// ImportExcel imports rows from the first sheet of an Excel workbook.
func ImportExcel(path string, kind Kind) ImportResult {
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

	return importFromRows(rows, "Row", kind)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, kind Kind) ImportResult {
	result := ImportResult{}

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
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			// Unrecognised header: skip it but keep positional mapping
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	var sizes []model.Size
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		v, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		switch kind {
		case KindStocks:
			for n := 0; n < v.quantity; n++ {
				label := v.label
				if label == "" {
					label = fmt.Sprintf("Sheet %d", len(sizes)+1)
				} else if v.quantity > 1 {
					label = fmt.Sprintf("%s #%d", v.label, n+1)
				}
				sizes = append(sizes, model.Size{Width: v.width, Height: v.height})
				result.Labels = append(result.Labels, label)
			}
		default:
			label := v.label
			if label == "" {
				label = fmt.Sprintf("Part %d", len(result.Products)+1)
			}
			result.Products = append(result.Products, model.NewProduct(label, v.width, v.height, v.quantity))
		}
	}

	if kind == KindStocks {
		result.Stocks = buildStocks(sizes)
	}
	return result
}

// buildStocks allocates free stocks on a shared grid large enough for the
// biggest sheet in each dimension.
func buildStocks(sizes []model.Size) []model.Stock {
	if len(sizes) == 0 {
		return nil
	}
	var grid model.Size
	for _, s := range sizes {
		if s.Width > grid.Width {
			grid.Width = s.Width
		}
		if s.Height > grid.Height {
			grid.Height = s.Height
		}
	}
	stocks := make([]model.Stock, len(sizes))
	for i, s := range sizes {
		stocks[i] = model.NewStock(s.Width, s.Height, grid.Width, grid.Height)
	}
	return stocks
}
