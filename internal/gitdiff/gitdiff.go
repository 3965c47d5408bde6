// Package gitdiff answers the two git questions chart bumping depends on:
// which chart manifests changed between two references, and whether a
// chart's version field was already edited on the current branch.
//
// All queries degrade softly. A failing git invocation is logged and
// reported as "no changes" so that detection can continue.
package gitdiff

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/runner"
)

// Defaults for the monorepo layout.
const (
	DefaultChartsDir    = "charts"
	DefaultManifestFile = "Chart.yaml"
	DefaultGitBin       = "git"
)

// versionField is the substring that marks a version line in diff output.
const versionField = "version:"

// Inspector runs git queries against a working tree.
type Inspector struct {
	run       runner.Runner
	gitBin    string
	repoDir   string
	chartsDir string
	manifest  string
	logger    *slog.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithGitBin overrides the git executable.
func WithGitBin(bin string) Option {
	return func(i *Inspector) {
		if bin != "" {
			i.gitBin = bin
		}
	}
}

// WithRepoDir sets the working tree used to resolve manifest paths on disk.
// It must match the directory the runner executes git in.
func WithRepoDir(dir string) Option {
	return func(i *Inspector) {
		i.repoDir = dir
	}
}

// WithChartsDir overrides the directory that holds one chart per child.
func WithChartsDir(dir string) Option {
	return func(i *Inspector) {
		if dir != "" {
			i.chartsDir = path.Clean(filepath.ToSlash(dir))
		}
	}
}

// WithLogger sets the logger for soft failures and per-chart decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logging.OrDefault(logger)
	}
}

// New creates an Inspector that runs git through r.
func New(r runner.Runner, opts ...Option) *Inspector {
	i := &Inspector{
		run:       r,
		gitBin:    DefaultGitBin,
		chartsDir: DefaultChartsDir,
		manifest:  DefaultManifestFile,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// ChartsDir returns the configured charts directory.
func (i *Inspector) ChartsDir() string {
	return i.chartsDir
}

// ChangedChartRoots lists the chart roots whose manifest changed between
// refA and refB, in first-seen order without duplicates. A git failure
// yields an empty slice.
func (i *Inspector) ChangedChartRoots(ctx context.Context, refA, refB string) []string {
	res, err := i.git(ctx, "diff", refA+".."+refB, "--name-only")
	if err != nil {
		i.logger.Warn("listing changed files failed, assuming no chart changes",
			slog.String("range", refA+".."+refB),
			slog.String("error", err.Error()),
		)

		return []string{}
	}

	pattern := i.chartsDir + "/*/" + i.manifest
	seen := make(map[string]struct{})
	roots := []string{}

	for _, line := range strings.Split(res.Stdout, "\n") {
		p := strings.TrimSpace(line)
		if p == "" {
			continue
		}

		if ok, _ := path.Match(pattern, p); !ok {
			continue
		}

		root := path.Dir(p)
		if _, dup := seen[root]; dup {
			continue
		}

		seen[root] = struct{}{}
		roots = append(roots, root)
	}

	i.logger.Debug("changed chart roots", slog.Int("count", len(roots)), slog.Any("charts", roots))

	return roots
}

// HasVersionBump reports whether the manifest under chartRoot has a changed
// version line in the diff between the merge base of targetRef and HEAD.
// A missing manifest, an empty diff, or a git failure all report false.
func (i *Inspector) HasVersionBump(ctx context.Context, chartRoot, targetRef string) bool {
	bumped, err := i.hasVersionBump(ctx, chartRoot, targetRef)
	if err != nil {
		i.logger.Warn("checking version bump failed, assuming none",
			logging.Chart(chartRoot),
			slog.String("error", err.Error()),
		)

		return false
	}

	return bumped
}

// AlreadyBumped filters roots down to the charts whose version was already
// changed on the branch. Charts are checked one at a time; a failure for one
// chart does not stop the others.
func (i *Inspector) AlreadyBumped(ctx context.Context, roots []string, targetRef string) []string {
	bumped := []string{}

	for _, root := range roots {
		if i.HasVersionBump(ctx, root, targetRef) {
			bumped = append(bumped, root)
		}
	}

	return bumped
}

// StatusPaths returns the paths git reports as modified or untracked for
// pathspec, parsed from porcelain status output.
func (i *Inspector) StatusPaths(ctx context.Context, pathspec string) ([]string, error) {
	res, err := i.git(ctx, "status", "--porcelain", pathspec)
	if err != nil {
		return nil, err
	}

	return ParsePorcelain(res.Stdout), nil
}

func (i *Inspector) hasVersionBump(ctx context.Context, chartRoot, targetRef string) (bool, error) {
	manifest := path.Join(chartRoot, i.manifest)

	if _, err := os.Stat(filepath.Join(i.repoDir, filepath.FromSlash(manifest))); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			i.logger.Debug("manifest not found, skipping bump check", logging.Chart(chartRoot))
			return false, nil
		}

		return false, err
	}

	res, err := i.git(ctx, "diff", targetRef+"...HEAD", "--", manifest)
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(res.Stdout) == "" {
		i.logger.Info("no manifest changes on branch", logging.Chart(chartRoot))
		return false, nil
	}

	oldVersion, newVersion, bumped := ScanVersionChange(res.Stdout)
	if bumped {
		i.logger.Info("version already bumped on branch",
			logging.Chart(chartRoot),
			slog.String("from", oldVersion),
			slog.String("to", newVersion),
		)
	} else {
		i.logger.Info("no version bump on branch", logging.Chart(chartRoot))
	}

	return bumped, nil
}

func (i *Inspector) git(ctx context.Context, args ...string) (runner.Result, error) {
	res, err := i.run.Run(ctx, i.gitBin, args...)
	if err != nil {
		return res, err
	}

	return res, res.Err(i.gitBin)
}

// ScanVersionChange scans unified diff text for a removed and an added line
// that both mention "version:". The value is whatever follows the marker,
// trimmed; later lines win over earlier ones. bumped is true only when both
// values are present and differ as strings. Equal versions written
// differently (quoted vs bare) therefore count as a bump.
func ScanVersionChange(diff string) (oldVersion, newVersion string, bumped bool) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "-") && strings.Contains(line, versionField):
			oldVersion = versionValue(line)
		case strings.HasPrefix(line, "+") && strings.Contains(line, versionField):
			newVersion = versionValue(line)
		}
	}

	bumped = oldVersion != "" && newVersion != "" && oldVersion != newVersion

	return oldVersion, newVersion, bumped
}

// versionValue returns the text between the first and second "version:"
// marker on line.
func versionValue(line string) string {
	parts := strings.SplitN(line, versionField, 3)
	return strings.TrimSpace(parts[1])
}

// ParsePorcelain extracts paths from `git status --porcelain` output. The
// two-letter status prefix is dropped, renames resolve to their new path,
// and quoted paths are unquoted.
func ParsePorcelain(out string) []string {
	paths := []string{}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		p := line
		if fields := strings.SplitN(line, " ", 2); len(fields) == 2 {
			p = strings.TrimSpace(fields[1])
		}

		if idx := strings.Index(p, " -> "); idx >= 0 {
			p = p[idx+len(" -> "):]
		}

		paths = append(paths, strings.Trim(p, `"`))
	}

	return paths
}
