// Package env simulates the cutting-stock environment a placement policy is
// driven against. It owns sheet state across steps, generates episodes,
// applies accepted placements and reports trim loss.
package env

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/model"
)

var (
	// ErrInvalidAction is returned for placements the environment cannot apply.
	ErrInvalidAction = errors.New("invalid action")
	// ErrEpisodeDone is returned when stepping a finished episode.
	ErrEpisodeDone = errors.New("episode already finished")
)

// Info describes the current episode state.
type Info struct {
	EpisodeID   string  `json:"episode_id"`
	Steps       int     `json:"steps"`
	Remaining   int     `json:"remaining"`    // Pieces still demanded
	FilledRatio float64 `json:"filled_ratio"` // Fraction of stocks with at least one cut
	TrimLoss    float64 `json:"trim_loss"`    // Mean free fraction of the used stocks
}

// StepResult is the outcome of one Step call.
type StepResult struct {
	Reward     float64
	Terminated bool // All demand has been cut
	Truncated  bool // MaxSteps reached first
	Info       Info
}

// AppliedPlacement records a placement the environment accepted.
type AppliedPlacement struct {
	Step         int             `json:"step"`
	ProductIndex int             `json:"product_index"`
	Label        string          `json:"label,omitempty"`
	Placement    model.Placement `json:"placement"`
}

// Env is a single cutting-stock episode. It is not safe for concurrent use.
type Env struct {
	config Config
	logger *log.Logger

	id       string
	stocks   []model.Stock
	products []model.Product
	steps    int
	applied  []AppliedPlacement
	done     bool
}

// New creates an environment. A nil logger discards output.
func New(config Config, logger *log.Logger) (*Env, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Env{config: config, logger: logger}, nil
}

// Config returns the generation parameters.
func (e *Env) Config() Config { return e.config }

// Reset starts a new episode with stocks and demand drawn from seed.
func (e *Env) Reset(seed int64) model.Observation {
	rng := rand.New(rand.NewSource(seed))
	c := e.config

	stocks := make([]model.Stock, c.NumStocks)
	for i := range stocks {
		w := c.MinStockWidth + rng.Intn(c.MaxStockWidth-c.MinStockWidth+1)
		h := c.MinStockHeight + rng.Intn(c.MaxStockHeight-c.MinStockHeight+1)
		stocks[i] = model.NewStock(w, h, c.MaxStockWidth, c.MaxStockHeight)
	}

	maxSide := c.MaxProductSize
	if maxSide > c.MinStockWidth {
		maxSide = c.MinStockWidth
	}
	if maxSide > c.MinStockHeight {
		maxSide = c.MinStockHeight
	}
	numTypes := 1 + rng.Intn(c.MaxProductTypes)
	products := make([]model.Product, numTypes)
	for i := range products {
		w := 1 + rng.Intn(maxSide)
		h := 1 + rng.Intn(maxSide)
		qty := 1 + rng.Intn(c.MaxProductPerType)
		products[i] = model.Product{
			ID:       uuid.New().String()[:8],
			Label:    fmt.Sprintf("P%d", i+1),
			Size:     model.Size{Width: w, Height: h},
			Quantity: qty,
		}
	}

	e.start(stocks, products)
	e.logger.Info("episode reset", "episode", e.id, "seed", seed, "stocks", len(stocks),
		"product_types", len(products), "pieces", model.Observation{Products: products}.RemainingUnits())
	return e.Observation()
}

// Load starts a new episode from an existing snapshot, e.g. an imported
// cut list. The snapshot is copied.
func (e *Env) Load(obs model.Observation) error {
	if err := engine.ValidateObservation(obs); err != nil {
		return err
	}
	cp := obs.Clone()
	e.start(cp.Stocks, cp.Products)
	e.logger.Info("episode loaded", "episode", e.id, "stocks", len(cp.Stocks), "pieces", cp.RemainingUnits())
	return nil
}

func (e *Env) start(stocks []model.Stock, products []model.Product) {
	e.id = uuid.New().String()
	e.stocks = stocks
	e.products = products
	e.steps = 0
	e.applied = nil
	e.done = model.Observation{Products: products}.RemainingUnits() == 0
}

// ID returns the current episode id.
func (e *Env) ID() string { return e.id }

// Observation returns a deep copy of the current state.
func (e *Env) Observation() model.Observation {
	return model.Observation{Stocks: e.stocks, Products: e.products}.Clone()
}

// Applied returns the placements accepted so far, in step order.
func (e *Env) Applied() []AppliedPlacement {
	return append([]AppliedPlacement(nil), e.applied...)
}

// Step applies one placement. The no-placement sentinel is a valid no-op.
// An invalid placement leaves the state untouched.
func (e *Env) Step(p model.Placement) (model.Observation, StepResult, error) {
	if e.stocks == nil {
		return model.Observation{}, StepResult{}, fmt.Errorf("%w: reset the environment first", ErrInvalidAction)
	}
	if e.done {
		return e.Observation(), e.result(), ErrEpisodeDone
	}

	if !p.IsNone() {
		idx, err := e.apply(p)
		if err != nil {
			e.logger.Debug("placement rejected", "episode", e.id, "step", e.steps, "err", err)
			return e.Observation(), e.result(), err
		}
		e.applied = append(e.applied, AppliedPlacement{
			Step:         e.steps,
			ProductIndex: idx,
			Label:        e.products[idx].Label,
			Placement:    p,
		})
		e.logger.Debug("placement applied", "episode", e.id, "step", e.steps, "stock", p.StockIndex,
			"x", p.Position.X, "y", p.Position.Y, "w", p.Size.Width, "h", p.Size.Height, "rotated", p.Rotated)
	}
	e.steps++

	res := e.result()
	if res.Terminated || res.Truncated {
		e.done = true
		e.logger.Info("episode finished", "episode", e.id, "steps", e.steps,
			"terminated", res.Terminated, "trim_loss", res.Info.TrimLoss)
	}
	return e.Observation(), res, nil
}

func (e *Env) apply(p model.Placement) (int, error) {
	if p.StockIndex < 0 || p.StockIndex >= len(e.stocks) {
		return 0, fmt.Errorf("%w: stock index %d out of range [0, %d)", ErrInvalidAction, p.StockIndex, len(e.stocks))
	}
	idx := e.matchProduct(p.Size)
	if idx < 0 {
		return 0, fmt.Errorf("%w: no demanded product of size %dx%d", ErrInvalidAction, p.Size.Width, p.Size.Height)
	}
	stock := e.stocks[p.StockIndex]
	if !engine.CanPlace(stock, p.Position, p.Size) {
		return 0, fmt.Errorf("%w: %dx%d at (%d, %d) does not fit stock %d",
			ErrInvalidAction, p.Size.Width, p.Size.Height, p.Position.X, p.Position.Y, p.StockIndex)
	}
	if err := stock.Fill(p.Position, p.Size, model.Cell(idx)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	e.products[idx].Quantity--
	return idx, nil
}

// matchProduct finds the first demanded product of the given size in
// either orientation.
func (e *Env) matchProduct(size model.Size) int {
	for i, p := range e.products {
		if p.Quantity > 0 && (p.Size == size || p.Size.Swap() == size) {
			return i
		}
	}
	return -1
}

func (e *Env) result() StepResult {
	info := e.Info()
	res := StepResult{
		Info:       info,
		Terminated: info.Remaining == 0,
	}
	if !res.Terminated && e.config.MaxSteps > 0 && e.steps >= e.config.MaxSteps {
		res.Truncated = true
	}
	if res.Terminated {
		res.Reward = -info.TrimLoss
	}
	return res
}

// Info computes the episode statistics for the current state.
func (e *Env) Info() Info {
	info := Info{
		EpisodeID: e.id,
		Steps:     e.steps,
		Remaining: model.Observation{Products: e.products}.RemainingUnits(),
	}
	info.FilledRatio, info.TrimLoss = Usage(e.stocks)
	return info
}

// Usage returns the fraction of stocks holding at least one cut and the
// mean free fraction of the usable area over those stocks.
func Usage(stocks []model.Stock) (filledRatio, trimLoss float64) {
	if len(stocks) == 0 {
		return 0, 0
	}
	used := 0
	var loss float64
	for _, s := range stocks {
		if s.UsedArea() == 0 {
			continue
		}
		used++
		if area := s.UsableSize().Area(); area > 0 {
			loss += float64(s.FreeArea()) / float64(area)
		}
	}
	filledRatio = float64(used) / float64(len(stocks))
	if used > 0 {
		trimLoss = loss / float64(used)
	}
	return filledRatio, trimLoss
}
