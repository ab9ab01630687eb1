package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Sheet names used by ExportPlacementLog.
const (
	PlacementsSheet = "Placements"
	StocksSheet     = "Stocks"
)

var placementHeaders = []interface{}{"Step", "Piece", "Stock", "Stock Label", "X", "Y", "Width", "Height", "Rotated"}

var stockHeaders = []interface{}{"Stock", "Label", "Usable Width", "Usable Height", "Pieces", "Used Cells", "Efficiency %"}

// ExportPlacementLog writes one row per placed piece in step order and a
// second sheet with per-stock usage.
func ExportPlacementLog(path string, layout Layout) error {
	pieces := layout.Pieces()
	if len(pieces) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), PlacementsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(StocksSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	labels := make(map[int]string, len(layout.Sheets))
	for _, s := range layout.Sheets {
		labels[s.Index] = s.Label
	}

	rows := [][]interface{}{placementHeaders}
	for _, p := range sortByStep(pieces) {
		rows = append(rows, []interface{}{
			p.Step, p.Label, p.Stock, labels[p.Stock],
			p.Position.X, p.Position.Y, p.Size.Width, p.Size.Height, p.Rotated,
		})
	}
	if err := writeRows(f, PlacementsSheet, rows, bold, len(placementHeaders)); err != nil {
		return err
	}

	rows = [][]interface{}{stockHeaders}
	for _, s := range layout.Sheets {
		rows = append(rows, []interface{}{
			s.Index, s.Label, s.Usable.Width, s.Usable.Height, len(s.Pieces), s.Used,
			fmt.Sprintf("%.1f", s.Efficiency()),
		})
	}
	if err := writeRows(f, StocksSheet, rows, bold, len(stockHeaders)); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle, cols int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

// sortByStep orders pieces by the step they were placed in.
func sortByStep(pieces []Piece) []Piece {
	out := append([]Piece(nil), pieces...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}
