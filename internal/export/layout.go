// Package export renders finished cutting layouts to PDF, DXF and Excel files.
package export

import (
	"fmt"

	"github.com/piwi3910/CutStock/internal/env"
	"github.com/piwi3910/CutStock/internal/model"
)

// Piece is one placed cut, ready for rendering.
type Piece struct {
	Label    string
	Step     int
	Stock    int
	Position model.Point
	Size     model.Size // As placed, rotation applied
	Rotated  bool
}

// Sheet is one stock with the pieces cut from it.
type Sheet struct {
	Index  int // Position in the episode's stock list
	Label  string
	Usable model.Size
	Used   int // Occupied cells
	Pieces []Piece
}

// Efficiency returns the used fraction of the usable area as a percentage.
func (s Sheet) Efficiency() float64 {
	area := s.Usable.Area()
	if area == 0 {
		return 0
	}
	return float64(s.Used) / float64(area) * 100
}

// Layout is the exportable view of an episode.
type Layout struct {
	Title     string
	Sheets    []Sheet // Used sheets only, in stock order
	Stocks    int     // Stocks available in the episode
	Remaining int     // Demanded pieces left uncut
	TrimLoss  float64
}

// Pieces returns every placed piece in sheet order.
func (l Layout) Pieces() []Piece {
	var out []Piece
	for _, s := range l.Sheets {
		out = append(out, s.Pieces...)
	}
	return out
}

// NewLayout groups the applied placements by stock. stockLabels may be nil
// or shorter than stocks; missing labels become "Stock N".
func NewLayout(title string, stocks []model.Stock, stockLabels []string, applied []env.AppliedPlacement, remaining int) Layout {
	byStock := make(map[int][]Piece)
	for _, a := range applied {
		p := a.Placement
		byStock[p.StockIndex] = append(byStock[p.StockIndex], Piece{
			Label:    a.Label,
			Step:     a.Step,
			Stock:    p.StockIndex,
			Position: p.Position,
			Size:     p.Size,
			Rotated:  p.Rotated,
		})
	}

	layout := Layout{Title: title, Stocks: len(stocks), Remaining: remaining}
	for i, s := range stocks {
		pieces := byStock[i]
		if len(pieces) == 0 {
			continue
		}
		label := fmt.Sprintf("Stock %d", i+1)
		if i < len(stockLabels) && stockLabels[i] != "" {
			label = stockLabels[i]
		}
		layout.Sheets = append(layout.Sheets, Sheet{
			Index:  i,
			Label:  label,
			Usable: s.UsableSize(),
			Used:   s.UsedArea(),
			Pieces: pieces,
		})
	}
	_, layout.TrimLoss = env.Usage(stocks)
	return layout
}
