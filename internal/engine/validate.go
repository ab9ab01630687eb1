package engine

import (
	"fmt"

	"github.com/piwi3910/CutStock/internal/model"
)

// ValidateObservation rejects snapshots no strategy can reason about:
// no stocks, empty or ragged grids, unknown cell states, non-positive
// product sizes and negative quantities.
func ValidateObservation(obs model.Observation) error {
	if len(obs.Stocks) == 0 {
		return fmt.Errorf("%w: no stocks", ErrInvalidInput)
	}
	for i, s := range obs.Stocks {
		if err := validateStock(s); err != nil {
			return fmt.Errorf("%w: stock %d: %v", ErrInvalidInput, i, err)
		}
	}
	for i, p := range obs.Products {
		if p.Size.Width <= 0 || p.Size.Height <= 0 {
			return fmt.Errorf("%w: product %d: size %dx%d must be positive", ErrInvalidInput, i, p.Size.Width, p.Size.Height)
		}
		if p.Quantity < 0 {
			return fmt.Errorf("%w: product %d: negative quantity %d", ErrInvalidInput, i, p.Quantity)
		}
	}
	return nil
}

func validateStock(s model.Stock) error {
	if len(s.Cells) == 0 || len(s.Cells[0]) == 0 {
		return fmt.Errorf("empty grid")
	}
	h := len(s.Cells[0])
	for x, col := range s.Cells {
		if len(col) != h {
			return fmt.Errorf("ragged grid: column %d has %d cells, want %d", x, len(col), h)
		}
		for y, c := range col {
			if !c.Valid() {
				return fmt.Errorf("cell (%d, %d) has unknown state %d", x, y, int(c))
			}
		}
	}
	return nil
}

// ValidateSettings checks that settings name a known algorithm and, for
// annealing, a usable schedule.
func ValidateSettings(s model.Settings) error {
	if !s.Algorithm.Valid() {
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, s.Algorithm)
	}
	if s.Algorithm != model.AlgorithmAnnealing {
		return nil
	}
	return validateAnnealing(s.Annealing)
}

func validateAnnealing(c model.AnnealingConfig) error {
	switch {
	case c.InitialTemperature <= 0:
		return fmt.Errorf("%w: initial temperature %g must be positive", ErrInvalidConfig, c.InitialTemperature)
	case c.CoolingRate <= 0 || c.CoolingRate >= 1:
		return fmt.Errorf("%w: cooling rate %g must be in (0, 1)", ErrInvalidConfig, c.CoolingRate)
	case c.MaxIterations < 0:
		return fmt.Errorf("%w: negative max iterations %d", ErrInvalidConfig, c.MaxIterations)
	case c.MaxSeedAttempts < 0:
		return fmt.Errorf("%w: negative max seed attempts %d", ErrInvalidConfig, c.MaxSeedAttempts)
	case c.Restarts < 0:
		return fmt.Errorf("%w: negative restarts %d", ErrInvalidConfig, c.Restarts)
	}
	return nil
}
