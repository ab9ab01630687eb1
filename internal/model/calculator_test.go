package model

import (
	"math"
	"testing"
)

func TestSummarizeDemandBasic(t *testing.T) {
	products := []Product{
		{Label: "A", Size: Size{Width: 2, Height: 3}, Quantity: 2},
		{Label: "B", Size: Size{Width: 1, Height: 1}, Quantity: 4},
		{Label: "Done", Size: Size{Width: 9, Height: 9}, Quantity: 0},
	}
	stocks := []Stock{NewStock(4, 4, 6, 6), NewStock(2, 2, 6, 6)}

	sum := SummarizeDemand(products, stocks)

	if sum.DemandUnits != 6 {
		t.Errorf("expected 6 demand units, got %d", sum.DemandUnits)
	}
	if sum.DemandArea != 16 {
		t.Errorf("expected demand area 16, got %d", sum.DemandArea)
	}
	if sum.UsableArea != 20 {
		t.Errorf("expected usable area 20, got %d", sum.UsableArea)
	}
	if sum.FreeArea != 20 {
		t.Errorf("expected free area 20, got %d", sum.FreeArea)
	}
	if sum.LargestStock != 16 {
		t.Errorf("expected largest stock 16, got %d", sum.LargestStock)
	}
	if sum.StocksNeededMin != 1 {
		t.Errorf("expected 1 stock needed, got %d", sum.StocksNeededMin)
	}
	if math.Abs(sum.Coverage-0.8) > 1e-9 {
		t.Errorf("expected coverage 0.8, got %f", sum.Coverage)
	}
}

func TestSummarizeDemandNoStocks(t *testing.T) {
	products := []Product{{Size: Size{Width: 1, Height: 1}, Quantity: 3}}
	sum := SummarizeDemand(products, nil)
	if sum.StocksNeededMin != 0 {
		t.Errorf("expected 0 stocks needed without stock, got %d", sum.StocksNeededMin)
	}
	if sum.Coverage != 0 {
		t.Errorf("expected zero coverage without free area, got %f", sum.Coverage)
	}
}

func TestSummarizeDemandCountsOnlyFreeCells(t *testing.T) {
	s := NewStock(3, 3, 3, 3)
	if err := s.Fill(Point{X: 0, Y: 0}, Size{Width: 2, Height: 2}, 0); err != nil {
		t.Fatalf("fill: %v", err)
	}
	products := []Product{{Size: Size{Width: 5, Height: 5}, Quantity: 1}}
	sum := SummarizeDemand(products, []Stock{s})
	if sum.FreeArea != 5 {
		t.Errorf("expected 5 free cells, got %d", sum.FreeArea)
	}
	if sum.StocksNeededMin != 3 {
		t.Errorf("expected ceil(25/9)=3 stocks, got %d", sum.StocksNeededMin)
	}
}
