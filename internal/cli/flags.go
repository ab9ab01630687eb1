package cli

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/CutStock/internal/model"
)

// policyFlags override the loaded policy settings when set on the command line.
type policyFlags struct {
	algorithm  string
	seed       int64
	iterations int
	restarts   int
}

func (f *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "placement algorithm: greedy, annealing (default from config)")
	cmd.Flags().Int64Var(&f.seed, "policy-seed", 0, "seed for the annealing random source (default from config)")
	cmd.Flags().IntVar(&f.iterations, "iterations", 0, "annealing iterations per restart (default from config)")
	cmd.Flags().IntVar(&f.restarts, "restarts", 0, "annealing restarts (default from config)")
}

func (f *policyFlags) apply(cmd *cobra.Command, s model.Settings) model.Settings {
	if cmd.Flags().Changed("algorithm") {
		s.Algorithm = model.Algorithm(f.algorithm)
	}
	if cmd.Flags().Changed("policy-seed") {
		s.Seed = f.seed
	}
	if cmd.Flags().Changed("iterations") {
		s.Annealing.MaxIterations = f.iterations
	}
	if cmd.Flags().Changed("restarts") {
		s.Annealing.Restarts = f.restarts
	}
	return s
}
