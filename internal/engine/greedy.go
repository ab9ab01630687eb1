package engine

import (
	"sort"

	"github.com/piwi3910/CutStock/internal/model"
)

// Greedy places the largest demanded piece at the first free top-left
// position, trying each stock in order and falling back to a 90 degree
// rotation. It is deterministic and keeps no state between calls.
type Greedy struct{}

// Decide returns the first feasible placement in priority order, or
// model.NoPlacement when no demanded piece fits any stock.
func (Greedy) Decide(products []model.Product, stocks []model.Stock) model.Placement {
	grids := newGrids(stocks)

	for _, p := range sortByAreaDesc(products) {
		for i, g := range grids {
			if pos, ok := g.firstFit(p.Size); ok {
				return model.Placement{StockIndex: i, Size: p.Size, Position: pos}
			}
			if p.Size.Width == p.Size.Height {
				continue
			}
			rotated := p.Size.Swap()
			if pos, ok := g.firstFit(rotated); ok {
				return model.Placement{StockIndex: i, Size: rotated, Position: pos, Rotated: true}
			}
		}
	}
	return model.NoPlacement
}

// sortByAreaDesc drops exhausted products and orders the rest largest first.
// Equal areas keep their input order.
func sortByAreaDesc(products []model.Product) []model.Product {
	pending := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Quantity > 0 {
			pending = append(pending, p)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Size.Area() > pending[j].Size.Area()
	})
	return pending
}
