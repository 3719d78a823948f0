package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	m "geokit.dev/tools/geokit/internal/model"
)

// linterWaitDelay bounds how long output copying may outlive a killed linter
// whose children still hold the pipes open.
const linterWaitDelay = 2 * time.Second

// LinterResult captures what a finished linter process reported.
type LinterResult struct {
	ExitCode int
	Output   string
}

// LinterAdapter abstracts invoking the external linter executable.
type LinterAdapter interface {
	// LookPath resolves the linter executable before any file is processed.
	LookPath(command string) (string, error)

	// RunLinter runs `command args... scratch` to completion. A process that
	// exits with any status yields a nil error and its exit code; err is only
	// set when the process could not be started or did not finish in time.
	RunLinter(ctx context.Context, command string, args []string, scratch m.Path) (LinterResult, error)
}

// LocalLinterAdapter provides a concrete implementation using os/exec.
type LocalLinterAdapter struct {
	timeout time.Duration
}

// NewLocalLinterAdapter constructs a LocalLinterAdapter. A non-positive
// timeout disables the per-file deadline.
func NewLocalLinterAdapter(timeout time.Duration) *LocalLinterAdapter {
	return &LocalLinterAdapter{
		timeout: timeout,
	}
}

// LookPath resolves command on PATH (or verifies an explicit path).
func (a *LocalLinterAdapter) LookPath(command string) (string, error) {
	return exec.LookPath(command)
}

// RunLinter runs the linter against a single scratch file.
func (a *LocalLinterAdapter) RunLinter(ctx context.Context, command string, args []string, scratch m.Path) (LinterResult, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, args...)
	argv = append(argv, string(scratch))

	// #nosec G204 - the linter command is operator configuration
	cmd := exec.CommandContext(ctx, command, argv...)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = linterWaitDelay

	err := cmd.Run()
	result := LinterResult{Output: out.String()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("linter did not finish: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	if err != nil {
		result.ExitCode = -1
		return result, err
	}

	return result, nil
}
