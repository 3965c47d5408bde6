// Package docgen regenerates chart README files with helm-docs and reports
// which of them changed in the working tree.
package docgen

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/runner"
)

// Defaults for the helm-docs collaborator.
const (
	DefaultBin     = "helm-docs"
	DefaultDocFile = "README.md"
)

// StatusLister reports working-tree changes for a pathspec.
type StatusLister interface {
	StatusPaths(ctx context.Context, pathspec string) ([]string, error)
}

// Generator runs helm-docs and collects the regenerated README paths.
type Generator struct {
	run    runner.Runner
	status StatusLister
	bin    string
	logger *slog.Logger
}

// New creates a Generator. An empty bin selects helm-docs from PATH.
func New(r runner.Runner, status StatusLister, bin string, logger *slog.Logger) *Generator {
	if bin == "" {
		bin = DefaultBin
	}

	return &Generator{
		run:    r,
		status: status,
		bin:    bin,
		logger: logging.OrDefault(logger),
	}
}

// Generate regenerates docs below searchRoot and returns the changed or new
// README paths. Both a helm-docs failure and a status failure are logged and
// reported as no changes.
func (g *Generator) Generate(ctx context.Context, searchRoot string) []string {
	res, err := g.run.Run(ctx, g.bin, "--chart-search-root", searchRoot)
	if err == nil {
		err = res.Err(g.bin)
	}

	if err != nil {
		g.logger.Warn("helm-docs failed, assuming no doc changes",
			slog.String("searchRoot", searchRoot),
			slog.String("error", err.Error()),
		)

		return []string{}
	}

	pathspec := path.Join(searchRoot, "*", DefaultDocFile)

	paths, err := g.status.StatusPaths(ctx, pathspec)
	if err != nil {
		g.logger.Warn("listing changed docs failed, assuming no doc changes",
			slog.String("pathspec", pathspec),
			slog.String("error", err.Error()),
		)

		return []string{}
	}

	docs := []string{}

	for _, p := range paths {
		if strings.Contains(p, DefaultDocFile) {
			docs = append(docs, p)
		}
	}

	if len(docs) > 0 {
		g.logger.Info("documentation changed", slog.Int("count", len(docs)), slog.Any("files", docs))
	}

	return docs
}
