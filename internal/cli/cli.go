// Package cli implements the cutstock command-line interface.
//
// Commands:
//   - run: play generated (or snapshot) episodes and export the final layout
//   - decide: print one placement for a saved observation snapshot
//   - compare: run the same episodes under several policy settings
//   - import: build an observation snapshot from CSV or Excel lists
//
// All commands support --verbose (-v) for debug-level logging and
// --config to load policy and episode settings from JSON or TOML.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/CutStock/internal/project"
)

const appName = "cutstock"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Version is reported by --version.
var Version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer // Command results; logs go to Logger

	configPath string
}

// New creates a CLI writing results to out and logs to logw.
func New(out, logw io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(logw, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
			Prefix:          appName,
		}),
		Out: out,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "CutStock places rectangular pieces on grid stock sheets",
		Long:         `CutStock is a cutting-stock placement engine. It decides where the next demanded piece goes on a set of grid stock sheets, using a deterministic greedy strategy or simulated annealing.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", project.DefaultConfigPath(), "settings file (.json or .toml)")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.decideCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.importCommand())

	return root
}

// loadConfig reads the --config file; a missing file yields defaults.
func (c *CLI) loadConfig() (project.Config, error) {
	cfg, err := project.LoadConfig(c.configPath)
	if err != nil {
		return project.Config{}, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "algorithm", cfg.Policy.Algorithm)
	return cfg, nil
}
