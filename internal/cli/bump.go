package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chartbump/internal/chart/bumper"
	"github.com/hupe1980/chartbump/internal/logging"
)

func newBumpCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "bump <chart-dir>...",
		Short: "Bump the patch version of one or more charts",
		Long: `Increment the patch component of the version in each chart's
Chart.yaml, independent of the state file. Exits 1 if any chart fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := bumper.New(logging.FromContext(cmd.Context()))
			out := cmd.OutOrStdout()

			if dryRun {
				return printPlans(out, b, args)
			}

			failed := 0

			for _, root := range args {
				res, err := b.Bump(root)
				if err != nil {
					_, _ = fmt.Fprintf(out, "Failed to bump version for: %s (%v)\n", root, err)
					failed++

					continue
				}

				_, _ = fmt.Fprintf(out, "Updated %s to version %s\n", res.Manifest, res.NewVersion)
			}

			if failed > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d of %d charts failed", failed, len(args))}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the manifest change instead of writing it")

	return cmd
}
