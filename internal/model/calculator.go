package model

import "math"

// DemandSummary compares outstanding demand against remaining stock capacity.
type DemandSummary struct {
	DemandUnits     int     `json:"demand_units"`      // Pieces still to cut
	DemandArea      int     `json:"demand_area"`       // Total area of those pieces (cells)
	FreeArea        int     `json:"free_area"`         // Free cells across all stocks
	UsableArea      int     `json:"usable_area"`       // Usable cells across all stocks
	LargestStock    int     `json:"largest_stock"`     // Usable area of the largest stock
	StocksNeededMin int     `json:"stocks_needed_min"` // Lower bound on stocks a full layout needs
	Coverage        float64 `json:"coverage"`          // DemandArea / FreeArea, 0 when no free area
}

// SummarizeDemand computes area totals for the given demand and stocks.
// StocksNeededMin is the ceiling of demand area over the largest usable stock.
func SummarizeDemand(products []Product, stocks []Stock) DemandSummary {
	var sum DemandSummary
	for _, p := range products {
		if p.Quantity <= 0 {
			continue
		}
		sum.DemandUnits += p.Quantity
		sum.DemandArea += p.Size.Area() * p.Quantity
	}

	for _, s := range stocks {
		usable := s.UsableSize().Area()
		sum.UsableArea += usable
		sum.FreeArea += s.FreeArea()
		if usable > sum.LargestStock {
			sum.LargestStock = usable
		}
	}

	if sum.LargestStock > 0 {
		sum.StocksNeededMin = int(math.Ceil(float64(sum.DemandArea) / float64(sum.LargestStock)))
	}
	if sum.FreeArea > 0 {
		sum.Coverage = float64(sum.DemandArea) / float64(sum.FreeArea)
	}
	return sum
}
