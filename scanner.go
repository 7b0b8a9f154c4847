package secflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
	"gopkg.in/yaml.v3"
)

// Report is the parsed output of one scanner run.
type Report struct {
	Results []Vulnerability `json:"results"`
}

// Scanner runs a static analysis scan against a checked-out source tree and
// returns the parsed report. Implementations own their execution environment
// and must clean it up before returning.
type Scanner interface {
	Scan(ctx context.Context, dir string) (*Report, error)
}

// Scanner exit codes. Both are completed scans: 1 just means findings exist.
const (
	scanExitClean    = 0
	scanExitFindings = 1
)

// banditConfig is the scanner configuration materialized into the workspace.
type banditConfig struct {
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// banditDockerfile embeds the cloned code into a throwaway image so the scan
// runs fully isolated from the host tree.
const banditDockerfile = `FROM python:3.9-slim
ENV LOG_LEVEL=ERROR
RUN pip install bandit==1.7.5
WORKDIR /code
COPY . /code
ENTRYPOINT ["bandit", "-c", "bandit.yaml", "-r", ".", "-f", "json", "--quiet"]
`

// BanditScanner runs bandit inside a container built from the scanned tree.
// Successful runs emit exactly one JSON document on the captured log stream;
// that stream doubles as the error detail when anything goes wrong.
type BanditScanner struct {
	binary string        // Container runtime binary (defaults to "docker")
	runner CommandRunner // Command runner (defaults to ExecRunner)
	logger *slog.Logger
}

// BanditOption configures BanditScanner.
type BanditOption func(*BanditScanner)

// WithDockerBinary sets the container runtime binary path.
func WithDockerBinary(binary string) BanditOption {
	return func(s *BanditScanner) {
		s.binary = binary
	}
}

// WithScannerRunner sets a custom command runner for container operations.
func WithScannerRunner(runner CommandRunner) BanditOption {
	return func(s *BanditScanner) {
		s.runner = runner
	}
}

// WithScannerLogger sets the logger for best-effort teardown failures.
func WithScannerLogger(logger *slog.Logger) BanditOption {
	return func(s *BanditScanner) {
		s.logger = logger
	}
}

// NewBanditScanner creates a scanner backed by the local container runtime.
// Returns ErrScannerNotFound if the runtime binary is not installed.
func NewBanditScanner(opts ...BanditOption) (*BanditScanner, error) {
	s := &BanditScanner{
		binary: "docker",
		runner: NewExecRunner(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := exec.LookPath(s.binary); err != nil {
		return nil, ErrScannerNotFound
	}
	return s, nil
}

// Scan builds a scanner image from dir, runs it to completion, and parses the
// captured container logs as the report. The container and image are removed
// before Scan returns, success or failure alike.
func (s *BanditScanner) Scan(ctx context.Context, dir string) (*Report, error) {
	if err := s.materializeConfig(dir); err != nil {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "write scanner config", Err: err}
	}

	suffix, err := nanoid.Generate(fixBranchAlphabet, fixBranchSuffixLen)
	if err != nil {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "generate image tag", Err: err}
	}
	// Unique per invocation so concurrent scans never share an image.
	tag := "secflow-bandit-" + suffix

	var containerID string
	defer func() {
		s.cleanup(containerID, tag)
	}()

	build, err := s.runner.Run(ctx, dir, s.binary, "build", "-f", "Dockerfile.bandit", "-t", tag, ".")
	if err != nil {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "build scanner image", Err: err}
	}
	if build.ExitCode != 0 {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "build scanner image", Detail: build.TrimmedStderr()}
	}

	run, err := s.runner.Run(ctx, dir, s.binary, "run", "-d", tag)
	if err != nil {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "start scanner", Err: err}
	}
	if run.ExitCode != 0 {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "start scanner", Detail: run.TrimmedStderr()}
	}
	containerID = run.TrimmedStdout()

	exitCode, err := s.wait(ctx, containerID)
	if err != nil {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "wait for scanner", Err: err}
	}

	logs, err := s.logs(ctx, containerID)
	if err != nil {
		return nil, &WorkflowError{Kind: KindToolExecution, Op: "collect scanner logs", Err: err}
	}

	if exitCode != scanExitClean && exitCode != scanExitFindings {
		return nil, &WorkflowError{
			Kind:   KindToolExecution,
			Op:     "run scanner",
			Detail: logs,
			Err:    fmt.Errorf("scanner exited with code %d", exitCode),
		}
	}

	var report Report
	if err := json.Unmarshal([]byte(logs), &report); err != nil {
		return nil, &WorkflowError{Kind: KindReportParse, Op: "parse scan results", Detail: logs, Err: err}
	}
	// A report without a results key still means an empty array on the wire.
	if report.Results == nil {
		report.Results = []Vulnerability{}
	}
	return &report, nil
}

// materializeConfig writes the scanner configuration and container recipe
// into the scanned tree.
func (s *BanditScanner) materializeConfig(dir string) error {
	cfg, err := yaml.Marshal(banditConfig{ExcludeDirs: []string{"tests"}})
	if err != nil {
		return fmt.Errorf("marshal scanner config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bandit.yaml"), cfg, 0o644); err != nil {
		return fmt.Errorf("write scanner config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile.bandit"), []byte(banditDockerfile), 0o644); err != nil {
		return fmt.Errorf("write scanner recipe: %w", err)
	}
	return nil
}

// wait blocks until the container exits and returns its exit code.
func (s *BanditScanner) wait(ctx context.Context, containerID string) (int, error) {
	result, err := s.runner.Run(ctx, "", s.binary, "wait", containerID)
	if err != nil {
		return 0, err
	}
	if result.ExitCode != 0 {
		return 0, fmt.Errorf("wait failed: %s", result.TrimmedStderr())
	}
	code, err := strconv.Atoi(result.TrimmedStdout())
	if err != nil {
		return 0, fmt.Errorf("parse container exit code %q: %w", result.TrimmedStdout(), err)
	}
	return code, nil
}

// logs returns the container's combined output stream.
func (s *BanditScanner) logs(ctx context.Context, containerID string) (string, error) {
	result, err := s.runner.Run(ctx, "", s.binary, "logs", containerID)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("logs failed: %s", result.TrimmedStderr())
	}
	// The scanner writes its report to stdout; anything on stderr is noise
	// that belongs in the captured stream for diagnostics.
	return strings.TrimSpace(result.Stdout + result.Stderr), nil
}

// cleanup removes the scan container and image. Failures here are logged,
// never surfaced to the client.
func (s *BanditScanner) cleanup(containerID, tag string) {
	ctx := context.Background()
	if containerID != "" {
		if result, err := s.runner.Run(ctx, "", s.binary, "rm", "-f", containerID); err != nil || result.ExitCode != 0 {
			s.logger.Info("failed to remove scan container",
				"container", containerID, "stderr", result.TrimmedStderr(), "error", err)
		}
	}
	if result, err := s.runner.Run(ctx, "", s.binary, "rmi", "-f", tag); err != nil || result.ExitCode != 0 {
		s.logger.Info("failed to remove scanner image",
			"image", tag, "stderr", result.TrimmedStderr(), "error", err)
	}
}
