package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdoutWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewStdoutWriter(&buf)

	data := []byte("apiVersion: v2\nname: app\nversion: 1.0.1\n")
	require.NoError(t, w.Write(data))
	assert.Equal(t, string(data), buf.String())
}

func TestStdoutWriter_NilDefault(t *testing.T) {
	assert.NotNil(t, NewStdoutWriter(nil))
}

func TestFileWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "app", "Chart.yaml")

	w := NewFileWriter(path)
	data := []byte("apiVersion: v2\nversion: 1.0.0\n")
	require.NoError(t, w.Write(data))

	got, err := os.ReadFile(path) //nolint:gosec // test
	require.NoError(t, err)
	assert.Equal(t, string(data), string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileWriter_CustomPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".chart-tracker.json")

	require.NoError(t, NewFileWriter(path, WithPermissions(0o600)).Write([]byte("{}")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileWriter_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Chart.yaml")

	require.NoError(t, os.WriteFile(path, []byte("version: 1.0.0\n"), 0o600))
	require.NoError(t, NewFileWriter(path).Write([]byte("version: 1.0.1\n")))

	got, err := os.ReadFile(path) //nolint:gosec // test
	require.NoError(t, err)
	assert.Equal(t, "version: 1.0.1\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileWriter_Path(t *testing.T) {
	assert.Equal(t, "/tmp/test.yaml", NewFileWriter("/tmp/test.yaml").Path())
}

func TestFileWriter_InvalidPath(t *testing.T) {
	err := NewFileWriter("/dev/null/impossible/path.yaml").Write([]byte("data"))
	assert.Error(t, err)
}
