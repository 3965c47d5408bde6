package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chartbump/internal/chart/bumper"
	"github.com/hupe1980/chartbump/internal/config"
	"github.com/hupe1980/chartbump/internal/docgen"
	"github.com/hupe1980/chartbump/internal/engine"
	"github.com/hupe1980/chartbump/internal/gitdiff"
	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/output"
	"github.com/hupe1980/chartbump/internal/tracker"
)

type processOptions struct {
	targetBranch string
	since        string
	dryRun       bool
}

func newProcessCommand(o *options) *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Detect charts that need a version bump and bump them",
		Long: `Detect charts whose Chart.yaml changed between --target-branch and
--since, skipping charts whose version was already bumped on the branch,
then run helm-docs and add every chart whose README changed. The pending
set is saved to the state file and each pending chart gets a patch bump.

Exits 0 when charts were bumped and 1 when nothing needed bumping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcess(cmd, o, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.targetBranch, "target-branch", "", "target branch for git diff comparison (required)")
	f.StringVar(&opts.since, "since", "", "commit to compare against the target branch (required)")
	f.String("charts-dir", config.DefaultChartsDir, "directory containing one chart per subdirectory")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the manifest changes instead of writing them")

	return cmd
}

func runProcess(cmd *cobra.Command, o *options, opts *processOptions) error {
	if opts.targetBranch == "" || opts.since == "" {
		return &ExitError{Code: 2, Err: errors.New("--target-branch and --since are required")}
	}

	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)
	out := cmd.OutOrStdout()

	store := tracker.Open(cfg.StateFile, logger)

	insp := gitdiff.New(o.runner,
		gitdiff.WithGitBin(cfg.GitBin),
		gitdiff.WithChartsDir(cfg.ChartsDir),
		gitdiff.WithLogger(logger),
	)
	docs := docgen.New(o.runner, insp, cfg.HelmDocsBin, logger)

	pending, err := engine.New(insp, docs, store, insp.ChartsDir(), logger).Reconcile(ctx, opts.targetBranch, opts.since)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if !pending {
		_, _ = fmt.Fprintln(out, "No charts need version bumps")
		return &ExitError{Code: 1}
	}

	_, _ = fmt.Fprintln(out, "Charts need version bumps:")
	if err := store.Status(out); err != nil {
		return err
	}

	b := bumper.New(logger)

	if opts.dryRun {
		return printPlans(out, b, store.Charts())
	}

	for _, outcome := range store.DrainAndBump(b) {
		if outcome.Err != nil {
			_, _ = fmt.Fprintf(out, "Failed to bump version for: %s (%v)\n", outcome.Chart, outcome.Err)
			continue
		}

		_, _ = fmt.Fprintf(out, "Bumped version for: %s (%s -> %s)\n",
			outcome.Chart, outcome.Result.OldVersion, outcome.Result.NewVersion)
	}

	return nil
}

// printPlans writes the manifest diff each chart would receive.
func printPlans(w io.Writer, b *bumper.Bumper, charts []string) error {
	sw := output.NewStdoutWriter(w)

	for _, c := range charts {
		res, err := b.Plan(c)
		if err != nil {
			_, _ = fmt.Fprintf(w, "Cannot bump version for: %s (%v)\n", c, err)
			continue
		}

		diff, err := res.Diff()
		if err != nil {
			return err
		}

		if err := sw.Write([]byte(diff)); err != nil {
			return err
		}
	}

	return nil
}
