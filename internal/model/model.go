package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrOutOfBounds is returned when a cell outside the stock grid is addressed.
var ErrOutOfBounds = errors.New("cell out of bounds")

// Cell is the state of one unit square of a stock sheet.
// Values >= 0 mark a cell occupied by the product with that index.
type Cell int

const (
	CellUnusable Cell = -2 // Outside the sheet's usable rectangle
	CellFree     Cell = -1 // Available for cutting
)

// IsOccupied reports whether the cell has been cut.
func (c Cell) IsOccupied() bool { return c >= 0 }

// Valid reports whether c is one of the recognised cell states.
func (c Cell) Valid() bool { return c >= CellUnusable }

func (c Cell) String() string {
	switch {
	case c == CellUnusable:
		return "unusable"
	case c == CellFree:
		return "free"
	case c.IsOccupied():
		return fmt.Sprintf("occupied(%d)", int(c))
	default:
		return fmt.Sprintf("invalid(%d)", int(c))
	}
}

// Point is a grid coordinate; X selects the column slice, Y the cell within it.
type Point struct {
	X int `json:"x" toml:"x"`
	Y int `json:"y" toml:"y"`
}

// Size is a rectangle extent in cells.
type Size struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

// Area returns Width*Height.
func (s Size) Area() int { return s.Width * s.Height }

// Swap returns the size rotated by 90 degrees.
func (s Size) Swap() Size { return Size{Width: s.Height, Height: s.Width} }

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Stock is one rectangular sheet as a cell grid indexed Cells[x][y].
// The usable region is the top-left aligned rectangle of non-unusable cells;
// the rest of the backing array is padding.
type Stock struct {
	Cells [][]Cell `json:"cells"`
}

// NewStock returns a stock of gridW x gridH cells whose top-left w x h
// rectangle is free and the remainder unusable.
func NewStock(w, h, gridW, gridH int) Stock {
	if gridW < w {
		gridW = w
	}
	if gridH < h {
		gridH = h
	}
	cells := make([][]Cell, gridW)
	for x := range cells {
		col := make([]Cell, gridH)
		for y := range col {
			if x < w && y < h {
				col[y] = CellFree
			} else {
				col[y] = CellUnusable
			}
		}
		cells[x] = col
	}
	return Stock{Cells: cells}
}

// GridWidth returns the number of columns in the backing array.
func (s Stock) GridWidth() int { return len(s.Cells) }

// GridHeight returns the number of cells per column in the backing array.
func (s Stock) GridHeight() int {
	if len(s.Cells) == 0 {
		return 0
	}
	return len(s.Cells[0])
}

// UsableSize returns the sheet's usable extent. Width counts the columns
// holding at least one non-unusable cell, height counts the row positions
// that do. An all-unusable stock yields (0, 0).
func (s Stock) UsableSize() Size {
	var size Size
	rows := make(map[int]bool)
	for _, col := range s.Cells {
		usable := false
		for y, c := range col {
			if c != CellUnusable {
				usable = true
				rows[y] = true
			}
		}
		if usable {
			size.Width++
		}
	}
	size.Height = len(rows)
	return size
}

// At returns the cell at (x, y).
func (s Stock) At(x, y int) (Cell, error) {
	if x < 0 || x >= len(s.Cells) || y < 0 || y >= len(s.Cells[x]) {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d grid", ErrOutOfBounds, x, y, s.GridWidth(), s.GridHeight())
	}
	return s.Cells[x][y], nil
}

// IsFree reports whether the cell at (x, y) can still be cut.
func (s Stock) IsFree(x, y int) (bool, error) {
	c, err := s.At(x, y)
	if err != nil {
		return false, err
	}
	return c == CellFree, nil
}

// IsUnusable reports whether the cell at (x, y) lies outside the sheet.
func (s Stock) IsUnusable(x, y int) (bool, error) {
	c, err := s.At(x, y)
	if err != nil {
		return false, err
	}
	return c == CellUnusable, nil
}

// Fill sets every cell of the rectangle at pos with the given size to v.
// The rectangle must lie inside the grid.
func (s Stock) Fill(pos Point, size Size, v Cell) error {
	if pos.X < 0 || pos.Y < 0 || pos.X+size.Width > s.GridWidth() || pos.Y+size.Height > s.GridHeight() {
		return fmt.Errorf("%w: rectangle %dx%d at (%d, %d)", ErrOutOfBounds, size.Width, size.Height, pos.X, pos.Y)
	}
	for x := pos.X; x < pos.X+size.Width; x++ {
		for y := pos.Y; y < pos.Y+size.Height; y++ {
			s.Cells[x][y] = v
		}
	}
	return nil
}

// Clone returns a deep copy of the stock.
func (s Stock) Clone() Stock {
	cells := make([][]Cell, len(s.Cells))
	for x, col := range s.Cells {
		cells[x] = append([]Cell(nil), col...)
	}
	return Stock{Cells: cells}
}

// FreeArea returns the number of free cells.
func (s Stock) FreeArea() int {
	n := 0
	for _, col := range s.Cells {
		for _, c := range col {
			if c == CellFree {
				n++
			}
		}
	}
	return n
}

// UsedArea returns the number of occupied cells.
func (s Stock) UsedArea() int {
	n := 0
	for _, col := range s.Cells {
		for _, c := range col {
			if c.IsOccupied() {
				n++
			}
		}
	}
	return n
}

// CloneStocks deep-copies a stock list.
func CloneStocks(stocks []Stock) []Stock {
	out := make([]Stock, len(stocks))
	for i, s := range stocks {
		out[i] = s.Clone()
	}
	return out
}

// Product is one demand entry: a piece size and the remaining count.
type Product struct {
	ID       string `json:"id,omitempty" toml:"id,omitempty"`
	Label    string `json:"label,omitempty" toml:"label,omitempty"`
	Size     Size   `json:"size" toml:"size"`
	Quantity int    `json:"quantity" toml:"quantity"`
}

func NewProduct(label string, w, h, qty int) Product {
	return Product{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Size:     Size{Width: w, Height: h},
		Quantity: qty,
	}
}

// Placement is a single cut: a rectangle of Size at Position on stock StockIndex.
type Placement struct {
	StockIndex int   `json:"stock_idx"`
	Size       Size  `json:"size"`
	Position   Point `json:"position"`
	Rotated    bool  `json:"rotated,omitempty"` // Size already reflects the rotation
}

// NoPlacement is returned when no product fits any stock.
var NoPlacement = Placement{}

// IsNone reports whether p is the no-placement sentinel.
func (p Placement) IsNone() bool {
	return p.StockIndex == 0 && p.Size.IsZero() && p.Position == (Point{})
}

// Observation is the state handed to a policy: current stocks and pending demand.
type Observation struct {
	Stocks   []Stock   `json:"stocks"`
	Products []Product `json:"products"`
}

// Clone returns a deep copy of the observation.
func (o Observation) Clone() Observation {
	return Observation{
		Stocks:   CloneStocks(o.Stocks),
		Products: append([]Product(nil), o.Products...),
	}
}

// RemainingUnits returns the total number of demanded pieces.
func (o Observation) RemainingUnits() int {
	n := 0
	for _, p := range o.Products {
		if p.Quantity > 0 {
			n += p.Quantity
		}
	}
	return n
}
