package engine

import "github.com/piwi3910/CutStock/internal/model"

// grid caches a stock's usable size so repeated feasibility queries against
// the same snapshot do not rescan the whole backing array.
type grid struct {
	stock  model.Stock
	usable model.Size
}

func newGrid(s model.Stock) grid {
	return grid{stock: s, usable: s.UsableSize()}
}

func newGrids(stocks []model.Stock) []grid {
	grids := make([]grid, len(stocks))
	for i, s := range stocks {
		grids[i] = newGrid(s)
	}
	return grids
}

// clone returns a grid backed by a private copy of the cells.
func (g grid) clone() grid {
	return grid{stock: g.stock.Clone(), usable: g.usable}
}

// fits reports whether a piece of the given size could fit the usable region
// of an empty sheet of this stock's extent.
func (g grid) fits(size model.Size) bool {
	return size.Width <= g.usable.Width && size.Height <= g.usable.Height
}

// canPlace is the single overlap and bounds check shared by every strategy.
func (g grid) canPlace(pos model.Point, size model.Size) bool {
	if pos.X < 0 || pos.Y < 0 || size.Width <= 0 || size.Height <= 0 {
		return false
	}
	if pos.X+size.Width > g.usable.Width || pos.Y+size.Height > g.usable.Height {
		return false
	}
	for x := pos.X; x < pos.X+size.Width; x++ {
		col := g.stock.Cells[x]
		if pos.Y+size.Height > len(col) {
			return false
		}
		for y := pos.Y; y < pos.Y+size.Height; y++ {
			if col[y] != model.CellFree {
				return false
			}
		}
	}
	return true
}

// firstFit scans top-left positions with x as the outer loop and returns the
// first one where a piece of the given size can be placed.
func (g grid) firstFit(size model.Size) (model.Point, bool) {
	if !g.fits(size) {
		return model.Point{}, false
	}
	for x := 0; x <= g.usable.Width-size.Width; x++ {
		for y := 0; y <= g.usable.Height-size.Height; y++ {
			pos := model.Point{X: x, Y: y}
			if g.canPlace(pos, size) {
				return pos, true
			}
		}
	}
	return model.Point{}, false
}

// mark occupies a rectangle already accepted by canPlace.
func (g grid) mark(pos model.Point, size model.Size, v model.Cell) {
	for x := pos.X; x < pos.X+size.Width; x++ {
		col := g.stock.Cells[x]
		for y := pos.Y; y < pos.Y+size.Height; y++ {
			col[y] = v
		}
	}
}

// CanPlace reports whether a rectangle of the given size with its top-left
// corner at pos lies inside the stock's usable region and covers only free
// cells. It never fails: out-of-range rectangles simply do not fit.
func CanPlace(stock model.Stock, pos model.Point, size model.Size) bool {
	return newGrid(stock).canPlace(pos, size)
}
