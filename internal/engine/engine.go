// Package engine decides which charts need an automatic patch bump.
//
// Two signals feed the decision. Charts whose Chart.yaml changed between the
// target and comparison references are queued unless the branch already
// edited their version field. Charts whose README was regenerated by
// helm-docs are always queued. The result is merged into a tracker.Store and
// persisted.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/hupe1980/chartbump/internal/logging"
)

// DiffInspector answers git questions about changed charts.
type DiffInspector interface {
	ChangedChartRoots(ctx context.Context, refA, refB string) []string
	AlreadyBumped(ctx context.Context, roots []string, targetRef string) []string
}

// DocGenerator regenerates chart docs and lists the changed doc files.
type DocGenerator interface {
	Generate(ctx context.Context, searchRoot string) []string
}

// Store is the pending-bump set the engine writes into.
type Store interface {
	AddAll(chartRoots []string)
	AddFromDocPaths(docPaths []string)
	Persist() error
	Len() int
	Charts() []string
}

// Report records how a reconcile run reached its decision.
type Report struct {
	Changed       []string
	AlreadyBumped []string
	Needing       []string
	DocFiles      []string
	Pending       []string
}

// HasPending reports whether any chart is queued.
func (r *Report) HasPending() bool {
	return len(r.Pending) > 0
}

// Engine reconciles git and doc changes into a Store.
type Engine struct {
	diff      DiffInspector
	docs      DocGenerator
	store     Store
	chartsDir string
	logger    *slog.Logger
}

// New creates an Engine. chartsDir is handed to the doc generator as its
// search root.
func New(diff DiffInspector, docs DocGenerator, store Store, chartsDir string, logger *slog.Logger) *Engine {
	return &Engine{
		diff:      diff,
		docs:      docs,
		store:     store,
		chartsDir: chartsDir,
		logger:    logging.OrDefault(logger),
	}
}

// Reconcile runs detection for targetRef..sinceRef, persists the store and
// reports whether any chart is pending. Only a persist failure is returned
// as an error.
func (e *Engine) Reconcile(ctx context.Context, targetRef, sinceRef string) (bool, error) {
	rep, err := e.ReconcileWithReport(ctx, targetRef, sinceRef)
	if err != nil {
		return false, err
	}

	return rep.HasPending(), nil
}

// ReconcileWithReport is Reconcile returning the intermediate chart sets.
func (e *Engine) ReconcileWithReport(ctx context.Context, targetRef, sinceRef string) (*Report, error) {
	rep := &Report{}

	rep.Changed = e.diff.ChangedChartRoots(ctx, targetRef, sinceRef)
	if len(rep.Changed) > 0 {
		e.logger.Info("found changed charts", slog.Int("count", len(rep.Changed)))

		rep.AlreadyBumped = e.diff.AlreadyBumped(ctx, rep.Changed, targetRef)
		rep.Needing = difference(rep.Changed, rep.AlreadyBumped)

		if len(rep.Needing) > 0 {
			e.logger.Info("queueing charts that need version bumps", slog.Int("count", len(rep.Needing)))
			e.store.AddAll(rep.Needing)
		} else {
			e.logger.Info("all changed charts already have version bumps")
		}
	}

	rep.DocFiles = e.docs.Generate(ctx, e.chartsDir)
	if len(rep.DocFiles) > 0 {
		e.logger.Info("found changed documentation files", slog.Int("count", len(rep.DocFiles)))
		e.store.AddFromDocPaths(rep.DocFiles)
	}

	if err := e.store.Persist(); err != nil {
		return nil, fmt.Errorf("persisting pending charts: %w", err)
	}

	rep.Pending = e.store.Charts()

	return rep, nil
}

// difference returns the members of all not in exclude, keeping the order
// of all.
func difference(all, exclude []string) []string {
	skip := sets.New(exclude...)
	out := make([]string, 0, len(all))

	for _, c := range all {
		if !skip.Has(c) {
			out = append(out, c)
		}
	}

	return out
}
