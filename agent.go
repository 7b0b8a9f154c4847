package secflow

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/randalmurphal/llmkit/model"
)

// Fixer applies an instruction to a file in a working tree. The agent is
// opaque: it mutates the file in place and its output is not otherwise
// interpreted.
type Fixer interface {
	Apply(ctx context.Context, workDir, filePath, instruction string) error
}

// AiderCLI wraps the aider CLI binary for automated code fixes.
type AiderCLI struct {
	binaryPath string          // Path to aider binary
	model      model.ModelName // LLM backend passed through to aider
	timeout    time.Duration   // Per-invocation timeout
	runner     CommandRunner
}

// AiderConfig configures the aider CLI wrapper.
type AiderConfig struct {
	BinaryPath string          // Path to aider binary (default: "aider")
	Model      model.ModelName // LLM backend (required)
	Timeout    time.Duration   // Per-invocation timeout (default: 10m)
	Runner     CommandRunner   // Command runner (default: ExecRunner)
}

// NewAiderCLI creates a new aider CLI wrapper.
// Returns ErrAgentNotFound if the aider binary is not installed.
func NewAiderCLI(cfg AiderConfig) (*AiderCLI, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = "aider"
	}

	if _, err := exec.LookPath(binaryPath); err != nil {
		return nil, ErrAgentNotFound
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}

	runner := cfg.Runner
	if runner == nil {
		runner = NewExecRunner()
	}

	return &AiderCLI{
		binaryPath: binaryPath,
		model:      cfg.Model,
		timeout:    timeout,
		runner:     runner,
	}, nil
}

// Apply runs aider against filePath with the given instruction. Aider
// commits the change itself when it succeeds; the caller only needs to push.
func (a *AiderCLI) Apply(ctx context.Context, workDir, filePath, instruction string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{"--yes", "--message", instruction}
	if a.model != "" {
		args = append(args, "--model", string(a.model))
	}
	args = append(args, filePath)

	result, err := a.runner.Run(ctx, workDir, a.binaryPath, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: after %v", ErrAgentTimeout, a.timeout)
		}
		return fmt.Errorf("%w: %v", ErrAgentFailed, err)
	}
	if result.ExitCode != 0 {
		detail := result.TrimmedStderr()
		if detail == "" {
			detail = result.TrimmedStdout()
		}
		return fmt.Errorf("%w: %s", ErrAgentFailed, detail)
	}
	return nil
}

// Model returns the configured LLM backend.
func (a *AiderCLI) Model() model.ModelName {
	return a.model
}
