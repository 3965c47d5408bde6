package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chartbump/internal/runner"
)

// executeCommand is a test helper that runs the CLI with the given args and
// captures both stdout and stderr. git and helm-docs are served by fake.
func executeCommand(fake *runner.Fake, args ...string) (stdout, stderr string, err error) {
	if fake == nil {
		fake = runner.NewFake()
	}

	cmd := NewRootCommand(WithRunner(fake))
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()

	return outBuf.String(), errBuf.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	if err == nil {
		return 0
	}

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)

	return exitErr.Code
}

// ---------------------------------------------------------------------------
// Help output
// ---------------------------------------------------------------------------

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand(nil, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"process", "cleanup", "status", "bump", "version"} {
		assert.Contains(t, stdout, sub, "help should mention %q subcommand", sub)
	}

	for _, flag := range []string{"--config", "--state-file", "--log-level", "--log-format", "--quiet"} {
		assert.Contains(t, stdout, flag, "help should mention %q flag", flag)
	}
}

// ---------------------------------------------------------------------------
// Usage and configuration errors -> exit code 2
// ---------------------------------------------------------------------------

func TestRootCommand_UnknownFlag(t *testing.T) {
	_, stderr, err := executeCommand(nil, "--nonexistent")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(t, err))
	assert.Empty(t, stderr, "cobra should not print errors to stderr (SilenceErrors)")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := executeCommand(nil, "--config", "/nonexistent/path.yaml", "status")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), "reading config file")
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	_, _, err := executeCommand(nil, "--log-level", "trace", "status")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), "invalid log level")
}

// ---------------------------------------------------------------------------
// execute
// ---------------------------------------------------------------------------

func TestExecute_ExitCodes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var stderr bytes.Buffer

		cmd := NewRootCommand()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"version"})

		assert.Equal(t, 0, execute(cmd, &stderr))
		assert.Empty(t, stderr.String())
	})

	t.Run("usage error prints message", func(t *testing.T) {
		var stderr bytes.Buffer

		cmd := NewRootCommand()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"--bogus"})

		assert.Equal(t, 2, execute(cmd, &stderr))
		assert.Contains(t, stderr.String(), "Error: unknown flag: --bogus")
	})

	t.Run("plain errors map to 1", func(t *testing.T) {
		var stderr bytes.Buffer

		cmd := NewRootCommand()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"nosuchcommand"})

		assert.Equal(t, 1, execute(cmd, &stderr))
		assert.Contains(t, stderr.String(), "unknown command")
	})
}

func TestExitError(t *testing.T) {
	inner := errors.New("boom")

	err := &ExitError{Code: 3, Err: inner}
	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "exit code 1", (&ExitError{Code: 1}).Error())
}
