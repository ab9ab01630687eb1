package engine

import (
	"fmt"
	"math/rand"

	"github.com/piwi3910/CutStock/internal/model"
)

// Strategy turns a snapshot of demand and stocks into one placement.
// Implementations must treat their inputs as read-only.
type Strategy interface {
	Decide(products []model.Product, stocks []model.Stock) model.Placement
}

// Policy is the decision facade: it validates a snapshot and hands it to the
// strategy selected by Settings.Algorithm. A Policy running the annealing
// strategy owns a random source and is not safe for concurrent use.
type Policy struct {
	settings model.Settings
	strategy Strategy
}

// New builds a policy whose annealing random source is seeded from
// settings.Seed.
func New(settings model.Settings) (*Policy, error) {
	return NewWithRand(settings, rand.New(rand.NewSource(settings.Seed)))
}

// NewWithRand builds a policy drawing annealing randomness from rng.
func NewWithRand(settings model.Settings, rng *rand.Rand) (*Policy, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	var strategy Strategy
	switch settings.Algorithm {
	case model.AlgorithmAnnealing:
		if rng == nil {
			return nil, fmt.Errorf("%w: annealing needs a random source", ErrInvalidConfig)
		}
		strategy = NewAnnealing(settings.Annealing, rng)
	default:
		strategy = Greedy{}
	}
	return &Policy{settings: settings, strategy: strategy}, nil
}

// Algorithm returns the configured strategy name.
func (p *Policy) Algorithm() model.Algorithm {
	return p.settings.Algorithm
}

// Decide returns one placement for the observation. Running out of
// placeable pieces is not an error: the result is then model.NoPlacement.
func (p *Policy) Decide(obs model.Observation) (model.Placement, error) {
	if err := ValidateObservation(obs); err != nil {
		return model.NoPlacement, err
	}
	return p.strategy.Decide(obs.Products, obs.Stocks), nil
}

// Decide is a one-shot convenience wrapper: it builds a fresh policy from
// settings and decides a single observation.
func Decide(obs model.Observation, settings model.Settings) (model.Placement, error) {
	p, err := New(settings)
	if err != nil {
		return model.NoPlacement, err
	}
	return p.Decide(obs)
}
