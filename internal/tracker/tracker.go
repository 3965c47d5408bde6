// Package tracker keeps the ordered set of charts waiting for a version bump
// and persists it between CI steps as a small JSON document.
//
// The document is shared by every invocation working in the same directory.
// There is no locking: two processes writing it concurrently race, and the
// last writer wins.
package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/chartbump/internal/chart/bumper"
	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/output"
)

// DefaultStateFile is the state document used when none is configured.
const DefaultStateFile = ".chart-tracker.json"

// docSuffix marks a regenerated chart README.
const docSuffix = "/README.md"

// State is the on-disk document.
type State struct {
	ChartsToBump []string `json:"charts_to_bump"`
}

// Bumper bumps a single chart.
type Bumper interface {
	Bump(chartRoot string) (*bumper.Result, error)
}

// Outcome is the per-chart result of DrainAndBump.
type Outcome struct {
	Chart  string
	Result *bumper.Result
	Err    error
}

// Store is an insertion-ordered set of chart roots backed by a state file.
type Store struct {
	path   string
	charts []string
	index  map[string]struct{}
	logger *slog.Logger
}

// New creates an empty Store backed by path. Nothing is read until Load.
func New(path string, logger *slog.Logger) *Store {
	if path == "" {
		path = DefaultStateFile
	}

	return &Store{
		path:   path,
		index:  make(map[string]struct{}),
		logger: logging.OrDefault(logger),
	}
}

// Open creates a Store and loads any existing state.
func Open(path string, logger *slog.Logger) *Store {
	s := New(path, logger)
	s.Load()

	return s
}

// Path returns the state document location.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory set with the persisted one. A missing document
// yields an empty set. An unreadable or malformed one is logged and also
// yields an empty set.
func (s *Store) Load() {
	s.reset()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not read state file, starting empty",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}

		return
	}

	var st State
	if err := sigsyaml.Unmarshal(data, &st); err != nil {
		s.logger.Warn("could not parse state file, starting empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)

		return
	}

	s.AddAll(st.ChartsToBump)

	s.logger.Debug("state loaded", slog.String("path", s.path), slog.Int("charts", len(s.charts)))
}

// Add queues chartRoot. It returns false when the chart is already queued.
func (s *Store) Add(chartRoot string) bool {
	if _, ok := s.index[chartRoot]; ok {
		return false
	}

	s.index[chartRoot] = struct{}{}
	s.charts = append(s.charts, chartRoot)

	return true
}

// AddAll queues every chart root in order, skipping duplicates.
func (s *Store) AddAll(chartRoots []string) {
	for _, c := range chartRoots {
		s.Add(c)
	}
}

// AddFromDocPaths queues the chart owning each README path. Paths that do
// not end in /README.md are ignored.
func (s *Store) AddFromDocPaths(docPaths []string) {
	for _, p := range docPaths {
		if !strings.HasSuffix(p, docSuffix) {
			continue
		}

		s.Add(path.Dir(p))
	}
}

// Charts returns a copy of the queued chart roots in insertion order.
func (s *Store) Charts() []string {
	out := make([]string, len(s.charts))
	copy(out, s.charts)

	return out
}

// Len returns the number of queued charts.
func (s *Store) Len() int {
	return len(s.charts)
}

// Persist writes the set to the state document.
func (s *Store) Persist() error {
	data, err := json.MarshalIndent(State{ChartsToBump: s.Charts()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	data = append(data, '\n')

	if err := output.NewFileWriter(s.path, output.WithLogger(s.logger)).Write(data); err != nil {
		return fmt.Errorf("saving state file %s: %w", s.path, err)
	}

	return nil
}

// DrainAndBump bumps every queued chart in order. A failing chart is logged
// and reported in its Outcome; the remaining charts are still processed.
// The queue itself is left as is and is removed by Clear.
func (s *Store) DrainAndBump(b Bumper) []Outcome {
	outcomes := make([]Outcome, 0, len(s.charts))

	for _, c := range s.charts {
		res, err := b.Bump(c)
		if err != nil {
			s.logger.Error("failed to bump chart version", logging.Chart(c), slog.String("error", err.Error()))
		} else {
			s.logger.Info("bumped chart version", logging.Chart(c))
		}

		outcomes = append(outcomes, Outcome{Chart: c, Result: res, Err: err})
	}

	return outcomes
}

// Clear deletes the state document and empties the set. A missing document
// is not an error.
func (s *Store) Clear() error {
	s.reset()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing state file %s: %w", s.path, err)
	}

	return nil
}

// Status prints the queued charts to w.
func (s *Store) Status(w io.Writer) error {
	if len(s.charts) == 0 {
		_, err := fmt.Fprintln(w, "No charts to bump")
		return err
	}

	if _, err := fmt.Fprintf(w, "Charts to bump (%d):\n", len(s.charts)); err != nil {
		return err
	}

	for _, c := range s.charts {
		if _, err := fmt.Fprintf(w, "  - %s\n", c); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) reset() {
	s.charts = nil
	s.index = make(map[string]struct{})
}
