package bumper

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestBumper() *Bumper {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// writeChart creates a chart directory with the given Chart.yaml content and
// returns the chart root.
func writeChart(t *testing.T, content string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "charts", "app")
	require.NoError(t, os.MkdirAll(root, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestFile), []byte(content), 0o600))

	return root
}

func readManifest(t *testing.T, root string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, ManifestFile)) //nolint:gosec // test
	require.NoError(t, err)

	return string(data)
}

func manifestWithVersion(v string) string {
	return "apiVersion: v2\nname: app\ndescription: A test chart\ntype: application\nversion: " + v + "\nappVersion: \"1.0.0\"\n"
}

// ---------------------------------------------------------------------------
// ParseVersion / ChartVersion
// ---------------------------------------------------------------------------

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, ChartVersion{Major: 1, Minor: 2, Patch: 3}, v)
	assert.Equal(t, "1.2.3", v.String())
}

func TestParseVersion_Invalid(t *testing.T) {
	for _, s := range []string{"", "1.2", "1.2.3.4", "1.2.a", "v1.2.3", "1.2.3-rc.1", "1..3", "-1.2.3", "1.2.3+build"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseVersion(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidVersion)
		})
	}
}

func TestChartVersion_IncPatch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.4"},
		{"0.0.0", "0.0.1"},
		{"999.888.777", "999.888.778"},
		{"1.0.9", "1.0.10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			require.NoError(t, err)

			next := v.IncPatch()
			assert.Equal(t, tt.want, next.String())
			assert.Equal(t, v.Major, next.Major)
			assert.Equal(t, v.Minor, next.Minor)
		})
	}
}

// ---------------------------------------------------------------------------
// Bump
// ---------------------------------------------------------------------------

func TestBump_IncrementsPatch(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"1.2.3", "1.2.4"},
		{"0.0.0", "0.0.1"},
		{"999.888.777", "999.888.778"},
	} {
		t.Run(tt.in, func(t *testing.T) {
			root := writeChart(t, manifestWithVersion(tt.in))

			res, err := newTestBumper().Bump(root)
			require.NoError(t, err)
			assert.Equal(t, tt.in, res.OldVersion.String())
			assert.Equal(t, tt.want, res.NewVersion.String())
			assert.Contains(t, readManifest(t, root), "version: "+tt.want+"\n")
		})
	}
}

func TestBump_QuotedVersion(t *testing.T) {
	root := writeChart(t, manifestWithVersion(`"2.1.0"`))

	res, err := newTestBumper().Bump(root)
	require.NoError(t, err)
	assert.Equal(t, "2.1.1", res.NewVersion.String())

	var chart map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(readManifest(t, root)), &chart))
	assert.Equal(t, "2.1.1", chart["version"])
}

func TestBump_PreservesOtherFieldsAndOrder(t *testing.T) {
	root := writeChart(t, `apiVersion: v2
name: app
description: A test chart
type: application
version: 1.0.0
appVersion: "1.16.0"
dependencies:
  - name: redis
    version: 17.0.0
    repository: https://charts.bitnami.com/bitnami
`)

	_, err := newTestBumper().Bump(root)
	require.NoError(t, err)

	got := readManifest(t, root)

	var chart map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(got), &chart))
	assert.Equal(t, "v2", chart["apiVersion"])
	assert.Equal(t, "app", chart["name"])
	assert.Equal(t, "application", chart["type"])
	assert.Equal(t, "1.0.1", chart["version"])
	assert.Equal(t, "1.16.0", chart["appVersion"])

	deps, ok := chart["dependencies"].([]any)
	require.True(t, ok)
	require.Len(t, deps, 1)
	assert.Equal(t, "17.0.0", deps[0].(map[string]any)["version"], "dependency versions are not touched")

	assert.Less(t, strings.Index(got, "apiVersion:"), strings.Index(got, "name:"))
	assert.Less(t, strings.Index(got, "type:"), strings.Index(got, "version: 1.0.1"))
}

func TestBump_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing version", "apiVersion: v2\nname: app\n", ErrMissingVersion},
		{"empty manifest", "", ErrMissingVersion},
		{"two components", manifestWithVersion("1.2"), ErrInvalidVersion},
		{"non-numeric", manifestWithVersion("1.2.a"), ErrInvalidVersion},
		{"list version", "apiVersion: v2\nversion:\n  - 1\n", ErrInvalidVersion},
		{"broken yaml", "apiVersion: v2\nversion: [1.2.3\n", ErrInvalidManifest},
		{"not a mapping", "- a\n- b\n", ErrInvalidManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeChart(t, tt.content)

			res, err := newTestBumper().Bump(root)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.content, readManifest(t, root), "manifest must not be mutated")
		})
	}
}

func TestBump_ManifestNotFound(t *testing.T) {
	root := t.TempDir()

	_, err := newTestBumper().Bump(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestNotFound)
	assert.Contains(t, err.Error(), filepath.Join(root, ManifestFile))
}

// ---------------------------------------------------------------------------
// Plan / Diff
// ---------------------------------------------------------------------------

func TestPlan_DoesNotWrite(t *testing.T) {
	content := manifestWithVersion("3.4.5")
	root := writeChart(t, content)

	res, err := newTestBumper().Plan(root)
	require.NoError(t, err)
	assert.Equal(t, "3.4.6", res.NewVersion.String())
	assert.Equal(t, content, string(res.Before))
	assert.Contains(t, string(res.After), "version: 3.4.6")
	assert.Equal(t, content, readManifest(t, root))
}

func TestResult_Diff(t *testing.T) {
	root := writeChart(t, manifestWithVersion("1.0.0"))

	res, err := newTestBumper().Plan(root)
	require.NoError(t, err)

	diff, err := res.Diff()
	require.NoError(t, err)
	assert.Contains(t, diff, "-version: 1.0.0")
	assert.Contains(t, diff, "+version: 1.0.1")
	assert.Contains(t, diff, "+++ b/")
}
