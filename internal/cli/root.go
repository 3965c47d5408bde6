// Package cli implements the cobra command tree for chartbump.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chartbump/internal/config"
	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/runner"
)

// ExitError wraps an error with a specific process exit code. A nil Err
// means the exit code alone carries the outcome.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Option customises the command tree.
type Option func(*options)

type options struct {
	runner runner.Runner
}

// WithRunner replaces the process runner used for git and helm-docs.
func WithRunner(r runner.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	return execute(NewRootCommand(), os.Stderr)
}

func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", exitErr.Err)
		}

		return exitErr.Code
	}

	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)

	return 1
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &options{runner: runner.NewExec("")}
	for _, opt := range opts {
		opt(o)
	}

	var cfgFile string

	cmd := &cobra.Command{
		Use:   "chartbump",
		Short: "Bump Helm chart patch versions for changed charts",
		Long: `chartbump finds the Helm charts in a monorepo whose Chart.yaml or
generated README changed between two git references and increments the
patch component of their version.

Charts whose version was already edited on the branch are left alone.
Pending charts are recorded in a state file so detection and bumping can
run as separate CI steps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("stateFile", cfg.StateFile),
				slog.String("chartsDir", cfg.ChartsDir),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .chartbump.yaml)")
	pf.String("state-file", config.DefaultStateFile, "path to the pending-bump state file")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.AddCommand(
		newProcessCommand(o),
		newCleanupCommand(),
		newStatusCommand(),
		newBumpCommand(),
		newVersionCommand(),
	)

	return cmd
}
