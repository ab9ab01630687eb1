package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CutStock/internal/project"
	"github.com/piwi3910/CutStock/internal/sim"
)

// compareCommand creates the compare command for scenario comparisons.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		episodes int
		seed     int64
		profiles string
	)
	var pf policyFlags

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare policy settings on the same seeded episodes",
		Long: `Compare policy settings on the same seeded episodes.

Without --profiles the configured settings are compared against the other
algorithm and a longer annealing schedule. With --profiles every named
profile in the file is run instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Policy = pf.apply(cmd, cfg.Policy)

			scenarios, err := c.scenarios(cfg, profiles)
			if err != nil {
				return err
			}
			return c.runCompare(cmd.Context(), cfg, scenarios, episodes, seed)
		},
	}

	cmd.Flags().IntVarP(&episodes, "episodes", "n", 5, "episodes per scenario")
	cmd.Flags().Int64VarP(&seed, "seed", "s", 1, "seed of the first episode")
	cmd.Flags().StringVar(&profiles, "profiles", "", "JSON file of named policy profiles")
	pf.register(cmd)

	return cmd
}

func (c *CLI) scenarios(cfg project.Config, profilesPath string) ([]sim.ComparisonScenario, error) {
	if profilesPath == "" {
		return sim.BuildDefaultScenarios(cfg.Policy), nil
	}
	profiles, err := project.LoadProfiles(profilesPath)
	if err != nil {
		return nil, fmt.Errorf("load profiles %s: %w", profilesPath, err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles in %s", profilesPath)
	}
	scenarios := make([]sim.ComparisonScenario, len(profiles))
	for i, p := range profiles {
		scenarios[i] = sim.ComparisonScenario{Name: p.Name, Settings: p.Settings}
	}
	return scenarios, nil
}

func (c *CLI) runCompare(ctx context.Context, cfg project.Config, scenarios []sim.ComparisonScenario, episodes int, seed int64) error {
	if episodes < 1 {
		return fmt.Errorf("--episodes must be at least 1, got %d", episodes)
	}

	results, err := sim.CompareScenarios(ctx, cfg.Env, scenarios, episodes, seed, c.Logger)
	if err != nil {
		return err
	}

	best := 0
	for i, r := range results {
		if r.MeanTrimLoss < results[best].MeanTrimLoss {
			best = i
		}
	}

	fmt.Fprintln(c.Out, styleTitle.Render(fmt.Sprintf("%d scenario(s), %d episode(s) each", len(results), episodes)))
	fmt.Fprintf(c.Out, "  %-28s %-10s %9s %7s %9s %10s\n", "SCENARIO", "ALGORITHM", "COMPLETE", "PLACED", "REMAINING", "TRIM LOSS")
	for i, r := range results {
		marker := " "
		if i == best {
			marker = "*"
		}
		fmt.Fprintf(c.Out, "%s %-28s %-10s %9s %7d %9d %10.4f\n", marker,
			r.Scenario.Name, r.Scenario.Settings.Algorithm,
			fmt.Sprintf("%d/%d", r.Completed, len(r.Episodes)), r.Placed, r.Remaining, r.MeanTrimLoss)
	}
	return nil
}
