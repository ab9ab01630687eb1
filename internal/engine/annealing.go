package engine

import (
	"math"
	"math/rand"

	"github.com/piwi3910/CutStock/internal/model"
)

// Neighbor move probabilities.
const (
	rotateProb   = 0.5
	edgeSnapProb = 0.3
	swapProb     = 0.2
)

// cut is one tentative placement inside a layout.
type cut struct {
	stock   int
	pos     model.Point
	size    model.Size
	rotated bool
}

func (c cut) placement() model.Placement {
	return model.Placement{StockIndex: c.stock, Size: c.size, Position: c.pos, Rotated: c.rotated}
}

// layout is a candidate solution: one cut per demanded piece.
type layout []cut

func (l layout) clone() layout {
	out := make(layout, len(l))
	copy(out, l)
	return out
}

// AnnealingResult is the outcome of one annealing run.
type AnnealingResult struct {
	Placement   model.Placement // First cut of the best layout, or model.NoPlacement when it is empty
	BestFitness int             // Negative overlapping area of Layout; 0 means no overlap
	Unseeded    int             // Demanded pieces that fit no stock at all and were left out
	Iterations  int
	Accepted    int

	// Layout is the best layout found: one cut per demanded piece except
	// those counted in Unseeded, so its length is the demanded piece count
	// minus Unseeded.
	Layout []model.Placement

	// BestHistory and CurrentHistory hold the best-so-far and current fitness
	// after every iteration, across all restarts.
	BestHistory    []int
	CurrentHistory []int
}

// Annealing searches complete layouts with simulated annealing and returns
// only the first cut of the best layout as its decision. The random source
// is owned by the strategy: an Annealing must not be shared between
// goroutines.
type Annealing struct {
	config model.AnnealingConfig
	rng    *rand.Rand
}

// NewAnnealing creates an annealing strategy drawing from rng.
func NewAnnealing(config model.AnnealingConfig, rng *rand.Rand) *Annealing {
	return &Annealing{config: config, rng: rng}
}

// Decide runs the optimizer and returns its placement.
func (a *Annealing) Decide(products []model.Product, stocks []model.Stock) model.Placement {
	return a.Optimize(products, stocks).Placement
}

// Optimize runs the full annealing schedule for every restart and reports
// the best layout seen, whether or not it was ever accepted as current.
func (a *Annealing) Optimize(products []model.Product, stocks []model.Stock) AnnealingResult {
	result := AnnealingResult{Placement: model.NoPlacement}
	if len(stocks) == 0 {
		return result
	}

	grids := newGrids(stocks)
	units := expandDemand(products)
	if len(units) == 0 {
		return result
	}

	restarts := a.config.Restarts
	if restarts < 1 {
		restarts = 1
	}

	var best layout
	bestFitness := math.MinInt

	for r := 0; r < restarts; r++ {
		current, unseeded := a.initLayout(units, grids)
		if r == 0 {
			result.Unseeded = unseeded
		}
		currentFitness := evaluate(current, grids)
		if currentFitness > bestFitness {
			best, bestFitness = current, currentFitness
		}
		if len(current) == 0 {
			continue
		}

		temperature := a.config.InitialTemperature
		for it := 0; it < a.config.MaxIterations; it++ {
			neighbor := a.neighbor(current, grids)
			neighborFitness := evaluate(neighbor, grids)

			if a.accept(neighborFitness-currentFitness, temperature) {
				current, currentFitness = neighbor, neighborFitness
				result.Accepted++
			}
			if neighborFitness > bestFitness {
				best, bestFitness = neighbor, neighborFitness
			}

			result.Iterations++
			result.BestHistory = append(result.BestHistory, bestFitness)
			result.CurrentHistory = append(result.CurrentHistory, currentFitness)

			temperature *= a.config.CoolingRate
		}
	}

	result.BestFitness = bestFitness
	result.Layout = make([]model.Placement, len(best))
	for i, c := range best {
		result.Layout[i] = c.placement()
	}
	result.Placement = pickPlacement(best)
	return result
}

// expandDemand lists one size per demanded piece, in product order.
func expandDemand(products []model.Product) []model.Size {
	var units []model.Size
	for _, p := range products {
		for i := 0; i < p.Quantity; i++ {
			units = append(units, p.Size)
		}
	}
	return units
}

// initLayout seeds one feasible cut per piece, judged against the snapshot
// alone. Random sampling is capped at MaxSeedAttempts draws per piece, after
// which the greedy scan order is used. Pieces that fit nowhere are skipped
// and counted.
func (a *Annealing) initLayout(units []model.Size, grids []grid) (layout, int) {
	l := make(layout, 0, len(units))
	unseeded := 0
	for _, size := range units {
		c, ok := a.sampleCut(size, grids)
		if !ok {
			c, ok = scanCut(size, grids)
		}
		if !ok {
			unseeded++
			continue
		}
		l = append(l, c)
	}
	return l, unseeded
}

func (a *Annealing) sampleCut(size model.Size, grids []grid) (cut, bool) {
	for attempt := 0; attempt < a.config.MaxSeedAttempts; attempt++ {
		i := a.rng.Intn(len(grids))
		g := grids[i]

		s, rotated := size, false
		if !g.fits(s) {
			s, rotated = size.Swap(), true
			if !g.fits(s) {
				continue
			}
		}
		pos := model.Point{
			X: a.rng.Intn(g.usable.Width - s.Width + 1),
			Y: a.rng.Intn(g.usable.Height - s.Height + 1),
		}
		if g.canPlace(pos, s) {
			return cut{stock: i, pos: pos, size: s, rotated: rotated}, true
		}
	}
	return cut{}, false
}

// scanCut finds the first feasible cut in greedy scan order.
func scanCut(size model.Size, grids []grid) (cut, bool) {
	for i, g := range grids {
		if pos, ok := g.firstFit(size); ok {
			return cut{stock: i, pos: pos, size: size}, true
		}
		if pos, ok := g.firstFit(size.Swap()); ok {
			return cut{stock: i, pos: pos, size: size.Swap(), rotated: true}, true
		}
	}
	return cut{}, false
}

// evaluate returns the negative total area of cuts that overlap an earlier
// cut of the layout or leave the free region of their stock. Stocks are
// copied on first use so the snapshot is never written.
func evaluate(l layout, grids []grid) int {
	scratch := make(map[int]grid)
	waste := 0
	for i, c := range l {
		g, ok := scratch[c.stock]
		if !ok {
			g = grids[c.stock].clone()
			scratch[c.stock] = g
		}
		if g.canPlace(c.pos, c.size) {
			g.mark(c.pos, c.size, model.Cell(i))
		} else {
			waste += c.size.Area()
		}
	}
	return -waste
}

// neighbor copies l and perturbs one cut: a new random stock, an optional
// rotation toggle, then a one-cell shift or an edge snap. With swapProb the
// cut instead trades places with another random cut.
func (a *Annealing) neighbor(l layout, grids []grid) layout {
	n := l.clone()
	idx := a.rng.Intn(len(n))
	c := n[idx]

	stock := a.rng.Intn(len(grids))
	usable := grids[stock].usable

	size, rotated := c.size, c.rotated
	if a.rng.Float64() < rotateProb {
		size, rotated = size.Swap(), !rotated
	}

	maxX := usable.Width - size.Width
	maxY := usable.Height - size.Height
	x := clamp(c.pos.X+a.rng.Intn(3)-1, maxX)
	y := clamp(c.pos.Y+a.rng.Intn(3)-1, maxY)

	if a.rng.Float64() < edgeSnapProb {
		if a.rng.Float64() < 0.5 {
			x = 0
			if a.rng.Float64() >= 0.5 {
				x = clamp(maxX, maxX)
			}
		} else {
			y = 0
			if a.rng.Float64() >= 0.5 {
				y = clamp(maxY, maxY)
			}
		}
	}

	if a.rng.Float64() < swapProb {
		j := a.rng.Intn(len(n))
		n[idx], n[j] = n[j], n[idx]
	} else {
		n[idx] = cut{stock: stock, pos: model.Point{X: x, Y: y}, size: size, rotated: rotated}
	}
	return n
}

// accept applies the Metropolis criterion.
func (a *Annealing) accept(delta int, temperature float64) bool {
	if delta > 0 {
		return true
	}
	if temperature <= 0 {
		return delta == 0
	}
	return a.rng.Float64() < math.Exp(float64(delta)/temperature)
}

// pickPlacement returns the first cut of the layout as the decision. The
// cut is not checked against the snapshot; an overlapping lead cut is
// rejected by the environment like any other invalid action.
func pickPlacement(l layout) model.Placement {
	if len(l) == 0 {
		return model.NoPlacement
	}
	return l[0].placement()
}

// clamp limits v to [0, hi]; a negative hi clamps to 0.
func clamp(v, hi int) int {
	if v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return v
}
