// Package runner executes external collaborators (git, helm-docs) and
// reports their outcome as a plain Result value.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the outcome of one external command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Err converts a non-zero exit into an error carrying stderr.
func (r Result) Err(name string) error {
	if r.OK() {
		return nil
	}

	msg := strings.TrimSpace(r.Stderr)
	if msg == "" {
		return fmt.Errorf("%s exited with status %d", name, r.ExitCode)
	}

	return fmt.Errorf("%s exited with status %d: %s", name, r.ExitCode, msg)
}

// Runner runs a command and waits for it. A non-nil error means the command
// could not be started at all; a non-zero exit is reported through Result.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec runs commands with os/exec in Dir (the current directory when empty).
type Exec struct {
	Dir string
}

// NewExec creates an Exec runner rooted at dir.
func NewExec(dir string) *Exec {
	return &Exec{Dir: dir}
}

// Run executes name with args.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	//nolint:gosec // G204: binaries come from trusted config
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	if err != nil {
		return res, fmt.Errorf("running %s: %w", name, err)
	}

	return res, nil
}
