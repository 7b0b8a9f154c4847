package secflow

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

// blockingRunner waits for the context to expire, mimicking a stuck agent.
type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, dir, name string, args ...string) (RunResult, error) {
	<-ctx.Done()
	return RunResult{}, ctx.Err()
}

func newTestAider(t *testing.T, cfg AiderConfig) *AiderCLI {
	t.Helper()
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "sh"
	}
	aider, err := NewAiderCLI(cfg)
	if err != nil {
		t.Fatalf("NewAiderCLI: %v", err)
	}
	return aider
}

func TestAiderCLIApply(t *testing.T) {
	ctx := context.Background()

	t.Run("composes expected arguments", func(t *testing.T) {
		runner := &fakeRunner{}
		aider := newTestAider(t, AiderConfig{Model: "groq/qwen-2.5-coder-32b", Runner: runner})

		if err := aider.Apply(ctx, "/work", "app.py", "fix it"); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if len(runner.calls) != 1 {
			t.Fatalf("got %d calls, want 1", len(runner.calls))
		}
		call := runner.calls[0]
		if call.Dir != "/work" {
			t.Errorf("dir = %q, want /work", call.Dir)
		}
		want := []string{"--yes", "--message", "fix it", "--model", "groq/qwen-2.5-coder-32b", "app.py"}
		if !reflect.DeepEqual(call.Args, want) {
			t.Errorf("args = %v, want %v", call.Args, want)
		}
	})

	t.Run("omits model flag when unset", func(t *testing.T) {
		runner := &fakeRunner{}
		aider := newTestAider(t, AiderConfig{Runner: runner})

		if err := aider.Apply(ctx, "/work", "app.py", "fix it"); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		for _, arg := range runner.calls[0].Args {
			if arg == "--model" {
				t.Errorf("args = %v, --model should be absent", runner.calls[0].Args)
			}
		}
	})

	t.Run("non-zero exit fails with stderr detail", func(t *testing.T) {
		runner := &fakeRunner{
			respond: func(name string, args []string) (RunResult, error) {
				return RunResult{ExitCode: 1, Stderr: "model refused\n"}, nil
			},
		}
		aider := newTestAider(t, AiderConfig{Runner: runner})

		err := aider.Apply(ctx, "/work", "app.py", "fix it")
		if !errors.Is(err, ErrAgentFailed) {
			t.Fatalf("err = %v, want ErrAgentFailed", err)
		}
		if !strings.Contains(err.Error(), "model refused") {
			t.Errorf("err = %v, want stderr detail", err)
		}
	})

	t.Run("falls back to stdout detail", func(t *testing.T) {
		runner := &fakeRunner{
			respond: func(name string, args []string) (RunResult, error) {
				return RunResult{ExitCode: 1, Stdout: "usage: aider"}, nil
			},
		}
		aider := newTestAider(t, AiderConfig{Runner: runner})

		err := aider.Apply(ctx, "/work", "app.py", "fix it")
		if err == nil || !strings.Contains(err.Error(), "usage: aider") {
			t.Errorf("err = %v, want stdout detail", err)
		}
	})

	t.Run("timeout surfaces as agent timeout", func(t *testing.T) {
		aider := newTestAider(t, AiderConfig{Timeout: 20 * time.Millisecond, Runner: blockingRunner{}})

		err := aider.Apply(ctx, "/work", "app.py", "fix it")
		if !errors.Is(err, ErrAgentTimeout) {
			t.Fatalf("err = %v, want ErrAgentTimeout", err)
		}
	})
}

func TestNewAiderCLIMissingBinary(t *testing.T) {
	_, err := NewAiderCLI(AiderConfig{BinaryPath: "definitely-not-a-binary-xyz"})
	if !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
}
