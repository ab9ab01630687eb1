package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/project"
)

// decideCommand creates the decide command, which prints one placement.
func (c *CLI) decideCommand() *cobra.Command {
	var snapshot string
	var pf policyFlags

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Print the next placement for a saved observation",
		Long: `Print the next placement for a saved observation as JSON.

The snapshot is the file written by 'cutstock import'. A stock_idx of 0 with
a zero size and position means no demanded piece fits any stock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			snap, err := project.LoadSnapshot(snapshot)
			if err != nil {
				return err
			}

			settings := pf.apply(cmd, cfg.Policy)
			placement, err := engine.Decide(snap.Observation, settings)
			if err != nil {
				return fmt.Errorf("decide: %w", err)
			}
			c.Logger.Debug("decision", "algorithm", settings.Algorithm, "none", placement.IsNone())

			enc := json.NewEncoder(c.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(placement)
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "observation snapshot (JSON)")
	_ = cmd.MarkFlagRequired("snapshot")
	pf.register(cmd)

	return cmd
}
