// Package chartmeta reads the identifying metadata of a chart on disk using
// Helm's own Chart.yaml loader.
package chartmeta

import (
	"fmt"
	"path/filepath"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
)

// ChartMeta is the subset of Chart.yaml chartbump reports on.
type ChartMeta struct {
	Root       string
	Name       string
	Version    string
	AppVersion string
	Type       string
}

// Load reads <root>/Chart.yaml.
func Load(root string) (*ChartMeta, error) {
	md, err := chartutil.LoadChartfile(filepath.Join(root, "Chart.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading chart metadata for %s: %w", root, err)
	}

	return FromMetadata(root, md), nil
}

// FromMetadata converts Helm chart metadata rooted at root.
func FromMetadata(root string, md *chart.Metadata) *ChartMeta {
	if md == nil {
		return &ChartMeta{Root: root}
	}

	return &ChartMeta{
		Root:       root,
		Name:       md.Name,
		Version:    md.Version,
		AppVersion: md.AppVersion,
		Type:       md.Type,
	}
}

// IsLibrary returns true if the chart is of type "library".
func (m *ChartMeta) IsLibrary() bool {
	return m.Type == "library"
}

// String formats the chart as "root (name version)".
func (m *ChartMeta) String() string {
	if m.Name == "" {
		return m.Root
	}

	return fmt.Sprintf("%s (%s %s)", m.Root, m.Name, m.Version)
}
