// Package bumper increments the patch version of a Helm chart by rewriting
// the version field of its Chart.yaml.
//
// The manifest is edited at the YAML node level, so key order and unrelated
// fields survive the rewrite. Formatting and comments are best effort and
// the version value is always written unquoted.
package bumper

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/chartbump/internal/logging"
	"github.com/hupe1980/chartbump/internal/output"
)

// ManifestFile is the chart manifest filename.
const ManifestFile = "Chart.yaml"

const versionKey = "version"

// Errors returned by Plan and Bump. They are wrapped with the manifest path;
// match with errors.Is.
var (
	ErrManifestNotFound = errors.New("chart manifest not found")
	ErrMissingVersion   = errors.New("no version field")
	ErrInvalidVersion   = errors.New("invalid version format")
	ErrInvalidManifest  = errors.New("invalid chart manifest")
)

// Result describes one patch bump.
type Result struct {
	ChartRoot  string
	Manifest   string
	OldVersion ChartVersion
	NewVersion ChartVersion
	Before     []byte
	After      []byte
}

// Diff renders a unified diff of the manifest change.
func (r *Result) Diff() (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(r.Before)),
		B:        difflib.SplitLines(string(r.After)),
		FromFile: "a/" + filepath.ToSlash(r.Manifest),
		ToFile:   "b/" + filepath.ToSlash(r.Manifest),
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("computing diff for %s: %w", r.Manifest, err)
	}

	return text, nil
}

// Bumper plans and applies patch bumps.
type Bumper struct {
	logger *slog.Logger
}

// New creates a Bumper. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Bumper {
	return &Bumper{logger: logging.OrDefault(logger)}
}

// Plan reads the manifest under chartRoot and computes the bumped document
// without writing it.
func (b *Bumper) Plan(chartRoot string) (*Result, error) {
	manifest := filepath.Join(chartRoot, ManifestFile)

	before, err := os.ReadFile(manifest) //nolint:gosec // chart paths come from git or the state file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrManifestNotFound, manifest)
		}

		return nil, fmt.Errorf("reading %s: %w", manifest, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(before, &doc); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidManifest, manifest, err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrMissingVersion, manifest)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w %s: top level is not a mapping", ErrInvalidManifest, manifest)
	}

	value := lookup(root, versionKey)
	if value == nil {
		return nil, fmt.Errorf("%w in %s", ErrMissingVersion, manifest)
	}

	if value.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w in %s: version is not a scalar", ErrInvalidVersion, manifest)
	}

	current, err := ParseVersion(value.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifest, err)
	}

	next := current.IncPatch()

	value.Value = next.String()
	value.Tag = "!!str"
	value.Style = 0

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", manifest, err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", manifest, err)
	}

	return &Result{
		ChartRoot:  chartRoot,
		Manifest:   manifest,
		OldVersion: current,
		NewVersion: next,
		Before:     before,
		After:      buf.Bytes(),
	}, nil
}

// Bump increments the patch version of the chart at chartRoot and rewrites
// its manifest in place. On error the manifest is left untouched.
func (b *Bumper) Bump(chartRoot string) (*Result, error) {
	res, err := b.Plan(chartRoot)
	if err != nil {
		return nil, err
	}

	perm := os.FileMode(0o644)
	if info, statErr := os.Stat(res.Manifest); statErr == nil {
		perm = info.Mode().Perm()
	}

	w := output.NewFileWriter(res.Manifest, output.WithPermissions(perm), output.WithLogger(b.logger))
	if err := w.Write(res.After); err != nil {
		return nil, err
	}

	b.logger.Info("chart version bumped",
		logging.Chart(chartRoot),
		slog.String("from", res.OldVersion.String()),
		slog.String("to", res.NewVersion.String()),
	)

	return res, nil
}

// lookup returns the value node for key in a mapping node.
func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}

	return nil
}
