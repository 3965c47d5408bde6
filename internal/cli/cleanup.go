package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/chartbump/internal/config"
	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/tracker"
)

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove the state file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			if err := tracker.New(cfg.StateFile, logging.FromContext(ctx)).Clear(); err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			return nil
		},
	}
}
