// Package sim drives placement policies through cutting-stock episodes.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/env"
	"github.com/piwi3910/CutStock/internal/model"
)

// DefaultMaxStalls is the number of consecutive decisions that place nothing
// before an episode is abandoned.
const DefaultMaxStalls = 3

// EpisodeResult summarises one finished episode.
type EpisodeResult struct {
	ID          string                 `json:"id"`
	Seed        int64                  `json:"seed"`
	Steps       int                    `json:"steps"`
	Placed      int                    `json:"placed"`
	Stalls      int                    `json:"stalls"`
	Terminated  bool                   `json:"terminated"`
	Truncated   bool                   `json:"truncated"`
	Stuck       bool                   `json:"stuck"` // Abandoned after MaxStalls decisions placed nothing
	Remaining   int                    `json:"remaining"`
	TrimLoss    float64                `json:"trim_loss"`
	FilledRatio float64                `json:"filled_ratio"`
	Duration    time.Duration          `json:"duration"`
	Stocks      []model.Stock          `json:"-"`
	Applied     []env.AppliedPlacement `json:"applied"`
}

// Runner repeatedly asks a policy for a placement and applies it.
type Runner struct {
	Env       *env.Env
	Policy    *engine.Policy
	Logger    *log.Logger
	Metrics   *Metrics      // Optional
	Pace      time.Duration // Pause between steps; zero runs flat out
	MaxStalls int           // Defaults to DefaultMaxStalls
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		r.Logger = log.New(io.Discard)
	}
	return r.Logger
}

// Run plays episodes, resetting episode i with seed+i.
func (r *Runner) Run(ctx context.Context, episodes int, seed int64) ([]EpisodeResult, error) {
	results := make([]EpisodeResult, 0, episodes)
	for i := 0; i < episodes; i++ {
		res, err := r.RunEpisode(ctx, seed+int64(i))
		if err != nil {
			return results, fmt.Errorf("episode %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// RunEpisode resets the environment with seed and plays until the episode ends.
func (r *Runner) RunEpisode(ctx context.Context, seed int64) (EpisodeResult, error) {
	obs := r.Env.Reset(seed)
	res, err := r.play(ctx, obs)
	res.Seed = seed
	return res, err
}

// RunObservation loads obs into the environment and plays it out.
func (r *Runner) RunObservation(ctx context.Context, obs model.Observation) (EpisodeResult, error) {
	if err := r.Env.Load(obs); err != nil {
		return EpisodeResult{}, err
	}
	return r.play(ctx, r.Env.Observation())
}

func (r *Runner) play(ctx context.Context, obs model.Observation) (EpisodeResult, error) {
	logger := r.logger()
	maxStalls := r.MaxStalls
	if maxStalls <= 0 {
		maxStalls = DefaultMaxStalls
	}

	start := time.Now()
	res := EpisodeResult{ID: r.Env.ID()}
	info := r.Env.Info()
	stalls := 0

	for info.Remaining > 0 {
		if err := ctx.Err(); err != nil {
			return r.finish(res, info, start), err
		}

		began := time.Now()
		p, err := r.Policy.Decide(obs)
		r.Metrics.observeDecision(string(r.Policy.Algorithm()), time.Since(began))
		if err != nil {
			return r.finish(res, info, start), err
		}

		next, step, err := r.Env.Step(p)
		switch {
		case errors.Is(err, env.ErrInvalidAction):
			logger.Warn("policy proposed an invalid placement", "episode", res.ID, "err", err)
			stalls++
			res.Stalls++
			r.Metrics.observeStep(false)
		case err != nil:
			return r.finish(res, info, start), err
		case p.IsNone():
			stalls++
			res.Stalls++
			r.Metrics.observeStep(false)
		default:
			stalls = 0
			res.Placed++
			r.Metrics.observeStep(true)
		}
		obs, info = next, r.Env.Info()
		logger.Debug("step", "episode", res.ID, "step", info.Steps, "stock", p.StockIndex,
			"remaining", info.Remaining, "trim_loss", info.TrimLoss)

		if step.Terminated || step.Truncated {
			res.Terminated, res.Truncated = step.Terminated, step.Truncated
			break
		}
		if stalls >= maxStalls {
			res.Stuck = true
			logger.Warn("no placement possible, abandoning episode", "episode", res.ID, "remaining", info.Remaining)
			break
		}

		if r.Pace > 0 {
			select {
			case <-ctx.Done():
				return r.finish(res, info, start), ctx.Err()
			case <-time.After(r.Pace):
			}
		}
	}
	if info.Remaining == 0 {
		res.Terminated = true
	}

	res = r.finish(res, info, start)
	r.Metrics.observeEpisode(res)
	logger.Info("episode done", "episode", res.ID, "placed", res.Placed, "remaining", res.Remaining,
		"trim_loss", fmt.Sprintf("%.4f", res.TrimLoss), "duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

func (r *Runner) finish(res EpisodeResult, info env.Info, start time.Time) EpisodeResult {
	res.Steps = info.Steps
	res.Remaining = info.Remaining
	res.TrimLoss = info.TrimLoss
	res.FilledRatio = info.FilledRatio
	res.Duration = time.Since(start)
	res.Stocks = r.Env.Observation().Stocks
	res.Applied = r.Env.Applied()
	return res
}
