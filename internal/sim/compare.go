package sim

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/env"
	"github.com/piwi3910/CutStock/internal/model"
)

// ComparisonScenario defines a named set of policy settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the episode outcomes and aggregate statistics for a
// single scenario.
type ComparisonResult struct {
	Scenario        ComparisonScenario
	Episodes        []EpisodeResult
	Completed       int // Episodes whose demand was fully cut
	Placed          int
	Remaining       int
	MeanTrimLoss    float64
	MeanFilledRatio float64
}

// CompareScenarios plays the same seeded episodes under every scenario and
// returns the results in scenario order. Scenarios run concurrently, each
// with its own environment and policy; the first failure cancels the rest.
func CompareScenarios(ctx context.Context, config env.Config, scenarios []ComparisonScenario, episodes int, seed int64, logger *log.Logger) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, len(scenarios))
	p := pool.New().WithContext(ctx).WithCancelOnError()

	for i, scenario := range scenarios {
		p.Go(func(ctx context.Context) error {
			policy, err := engine.New(scenario.Settings)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", scenario.Name, err)
			}
			e, err := env.New(config, logger)
			if err != nil {
				return err
			}
			runner := &Runner{Env: e, Policy: policy, Logger: logger}

			eps, err := runner.Run(ctx, episodes, seed)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", scenario.Name, err)
			}
			results[i] = summarize(scenario, eps)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarize(scenario ComparisonScenario, eps []EpisodeResult) ComparisonResult {
	res := ComparisonResult{Scenario: scenario, Episodes: eps}
	if len(eps) == 0 {
		return res
	}
	for _, ep := range eps {
		if ep.Terminated {
			res.Completed++
		}
		res.Placed += ep.Placed
		res.Remaining += ep.Remaining
		res.MeanTrimLoss += ep.TrimLoss
		res.MeanFilledRatio += ep.FilledRatio
	}
	res.MeanTrimLoss /= float64(len(eps))
	res.MeanFilledRatio /= float64(len(eps))
	return res
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying the algorithm and the annealing budget.
func BuildDefaultScenarios(base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: Try the other algorithm
	alt := base
	if base.Algorithm == model.AlgorithmGreedy {
		alt.Algorithm = model.AlgorithmAnnealing
		scenarios = append(scenarios, ComparisonScenario{Name: "Simulated Annealing", Settings: alt})
	} else {
		alt.Algorithm = model.AlgorithmGreedy
		scenarios = append(scenarios, ComparisonScenario{Name: "Greedy", Settings: alt})
	}

	// Scenario: Longer annealing schedule
	long := base
	long.Algorithm = model.AlgorithmAnnealing
	long.Annealing.MaxIterations = base.Annealing.MaxIterations * 5
	if long.Annealing.MaxIterations == 0 {
		long.Annealing.MaxIterations = model.DefaultAnnealingConfig().MaxIterations * 5
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Annealing %d iterations", long.Annealing.MaxIterations),
		Settings: long,
	})

	return scenarios
}
