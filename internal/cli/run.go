package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/env"
	"github.com/piwi3910/CutStock/internal/export"
	"github.com/piwi3910/CutStock/internal/model"
	"github.com/piwi3910/CutStock/internal/project"
	"github.com/piwi3910/CutStock/internal/sim"
)

type runOptions struct {
	episodes  int
	seed      int64
	pace      time.Duration
	maxStalls int
	snapshot  string
	report    string
	labels    string
	dxf       string
	log       string
	metrics   string
}

// runCommand creates the run command for playing episodes.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions
	var pf policyFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play cutting-stock episodes with the configured policy",
		Long: `Play cutting-stock episodes with the configured policy.

Each episode draws fresh stocks and demand from --seed plus the episode
number, or replays a saved observation with --snapshot. The layout of the
final episode can be exported as a PDF report, a QR label sheet, a DXF
drawing and an Excel placement log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Policy = pf.apply(cmd, cfg.Policy)
			return c.runEpisodes(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.episodes, "episodes", "n", 1, "number of episodes")
	cmd.Flags().Int64VarP(&opts.seed, "seed", "s", 1, "seed of the first episode")
	cmd.Flags().DurationVar(&opts.pace, "pace", 0, "pause between steps (e.g. 50ms)")
	cmd.Flags().IntVar(&opts.maxStalls, "max-stalls", sim.DefaultMaxStalls, "abandon an episode after this many empty decisions in a row")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "replay a saved observation instead of generating episodes")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a PDF layout report")
	cmd.Flags().StringVar(&opts.labels, "labels", "", "write a PDF sheet of QR piece labels")
	cmd.Flags().StringVar(&opts.dxf, "dxf", "", "write a DXF layout drawing")
	cmd.Flags().StringVar(&opts.log, "log", "", "write an Excel placement log")
	cmd.Flags().StringVar(&opts.metrics, "metrics-addr", "", "serve Prometheus metrics on this address while running (e.g. :9090)")
	pf.register(cmd)

	return cmd
}

func (c *CLI) runEpisodes(ctx context.Context, cfg project.Config, opts runOptions) error {
	if opts.episodes < 1 && opts.snapshot == "" {
		return fmt.Errorf("--episodes must be at least 1, got %d", opts.episodes)
	}

	policy, err := engine.New(cfg.Policy)
	if err != nil {
		return err
	}
	e, err := env.New(cfg.Env, c.Logger)
	if err != nil {
		return err
	}
	runner := &sim.Runner{Env: e, Policy: policy, Logger: c.Logger, Pace: opts.pace, MaxStalls: opts.maxStalls}
	if opts.metrics != "" {
		runner.Metrics = sim.NewMetrics()
		stop := runner.Metrics.Serve(opts.metrics, c.Logger)
		defer stop()
	}

	var results []sim.EpisodeResult
	var stockLabels []string
	if opts.snapshot != "" {
		snap, err := project.LoadSnapshot(opts.snapshot)
		if err != nil {
			return err
		}
		res, err := runner.RunObservation(ctx, snap.Observation)
		if err != nil {
			return fmt.Errorf("replay %s: %w", opts.snapshot, err)
		}
		results = append(results, res)
		stockLabels = snap.StockLabels
	} else {
		c.Logger.Info("running episodes", "episodes", opts.episodes, "seed", opts.seed, "algorithm", cfg.Policy.Algorithm)
		if results, err = runner.Run(ctx, opts.episodes, opts.seed); err != nil {
			return err
		}
	}

	c.printEpisodes(results, cfg.Policy.Algorithm)

	last := results[len(results)-1]
	title := fmt.Sprintf("CutStock %s run, episode %s", cfg.Policy.Algorithm, last.ID)
	layout := export.NewLayout(title, last.Stocks, stockLabels, last.Applied, last.Remaining)
	return c.writeExports(layout, opts)
}

func (c *CLI) printEpisodes(results []sim.EpisodeResult, algorithm model.Algorithm) {
	fmt.Fprintln(c.Out, styleTitle.Render(fmt.Sprintf("%d episode(s), %s", len(results), algorithm)))

	var trimLoss float64
	completed := 0
	for i, r := range results {
		status := "complete"
		switch {
		case r.Stuck:
			status = "stuck"
		case r.Truncated:
			status = "truncated"
		case !r.Terminated:
			status = "incomplete"
		}
		if r.Terminated {
			completed++
		}
		trimLoss += r.TrimLoss
		fmt.Fprintf(c.Out, "  #%-3d seed %-6d placed %-4d remaining %-4d trim loss %.4f  %s\n",
			i+1, r.Seed, r.Placed, r.Remaining, r.TrimLoss, styleDim.Render(status))
	}

	printStat(c.Out, "completed", fmt.Sprintf("%d/%d", completed, len(results)))
	printStat(c.Out, "mean trim loss", fmt.Sprintf("%.4f", trimLoss/float64(len(results))))
}

// writeExports writes every requested export of layout.
func (c *CLI) writeExports(layout export.Layout, opts runOptions) error {
	exports := []struct {
		name string
		path string
		fn   func(string, export.Layout) error
	}{
		{"report", opts.report, export.ExportPDF},
		{"labels", opts.labels, export.ExportLabels},
		{"drawing", opts.dxf, export.ExportDXF},
		{"placement log", opts.log, export.ExportPlacementLog},
	}

	for _, x := range exports {
		if x.path == "" {
			continue
		}
		err := x.fn(x.path, layout)
		if errors.Is(err, export.ErrNothingToExport) {
			printWarning(c.Out, "Skipped %s: nothing was placed", x.name)
			continue
		}
		if err != nil {
			return fmt.Errorf("write %s %s: %w", x.name, x.path, err)
		}
		c.Logger.Debug("export written", "kind", x.name, "path", x.path)
		printSuccess(c.Out, "Wrote %s", x.name)
		printFile(c.Out, x.path)
	}
	return nil
}
