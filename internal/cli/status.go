package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chartbump/internal/config"
	"github.com/hupe1980/chartbump/internal/helm/chartmeta"
	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/tracker"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List the charts waiting for a version bump",
		Long: `List the charts recorded in the state file together with the name
and current version read from each chart's Chart.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := logging.FromContext(ctx)
			out := cmd.OutOrStdout()

			charts := tracker.Open(cfg.StateFile, logger).Charts()
			if len(charts) == 0 {
				_, err := fmt.Fprintln(out, "No charts to bump")
				return err
			}

			if _, err := fmt.Fprintf(out, "Charts to bump (%d):\n", len(charts)); err != nil {
				return err
			}

			for _, c := range charts {
				line := c

				meta, err := chartmeta.Load(c)
				if err != nil {
					logger.Debug("chart metadata unavailable", logging.Chart(c), slog.String("error", err.Error()))
				} else {
					line = meta.String()
				}

				if _, err := fmt.Fprintf(out, "  - %s\n", line); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
