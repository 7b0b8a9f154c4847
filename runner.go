package secflow

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// RunResult holds the outcome of one external command invocation.
type RunResult struct {
	ExitCode int    // Process exit code (0 on success)
	Stdout   string // Captured standard output
	Stderr   string // Captured standard error
}

// CommandRunner executes external commands. A non-zero exit code is returned
// in the result, not as an error; callers interpret exit codes according to
// each tool's convention. The error return is reserved for failures to run
// the command at all (missing binary, canceled context).
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		// A context that expires mid-run kills the process, which also
		// surfaces as an ExitError; the context takes precedence.
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	return result, nil
}

// TrimmedStderr returns stderr with surrounding whitespace removed.
func (r RunResult) TrimmedStderr() string {
	return strings.TrimSpace(r.Stderr)
}

// TrimmedStdout returns stdout with surrounding whitespace removed.
func (r RunResult) TrimmedStdout() string {
	return strings.TrimSpace(r.Stdout)
}
