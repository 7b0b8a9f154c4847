package secflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/randalmurphal/secflow/notify"
)

// recorder captures every message a workflow sends. failAfter > 0 makes the
// Nth send fail, simulating a dropped session.
type recorder struct {
	mu        sync.Mutex
	messages  []ProgressMessage
	failAfter int
}

func (r *recorder) Send(msg ProgressMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter > 0 && len(r.messages)+1 >= r.failAfter {
		return errors.New("connection closed")
	}
	r.messages = append(r.messages, msg)
	return nil
}

// last returns the final recorded message.
func (r *recorder) last(t *testing.T) ProgressMessage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		t.Fatal("no messages recorded")
	}
	return r.messages[len(r.messages)-1]
}

// terminalCount returns how many recorded messages are terminal.
func (r *recorder) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Terminal() {
			n++
		}
	}
	return n
}

// fakeScanner returns a fixed report or error.
type fakeScanner struct {
	report *Report
	err    error
}

func (s *fakeScanner) Scan(ctx context.Context, dir string) (*Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

// fakeNotifier records alerts; err makes every Notify call fail.
type fakeNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
	err    error
}

func (n *fakeNotifier) Notify(ctx context.Context, alert notify.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, alert)
	return nil
}

// workspaceCount returns how many workspace directories remain under root.
func workspaceCount(t *testing.T, root string) int {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read workspace root: %v", err)
	}
	return len(entries)
}

func newScanWorkflow(root string, scanner Scanner, notifier notify.Notifier) *ScanWorkflow {
	cfg := ScanWorkflowConfig{
		Workspaces: NewWorkspaceManager(root),
		Scanner:    scanner,
		GitOptions: []GitOption{WithGitRunner(&fakeRunner{})},
	}
	if notifier != nil {
		cfg.Notifiers = func(url string) notify.Notifier { return notifier }
	}
	return NewScanWorkflow(cfg)
}

func TestScanWorkflowRun(t *testing.T) {
	ctx := context.Background()
	validReq := ScanRequest{RepoURL: "https://github.com/acme/api.git", GitHubToken: "tok"}
	findings := []Vulnerability{{
		Severity: "HIGH", Filename: "a.py", LineNumber: 3, IssueText: "eval use", Code: "eval(x)",
	}}

	t.Run("invalid request gets a single terminal error", func(t *testing.T) {
		root := t.TempDir()
		w := newScanWorkflow(root, &fakeScanner{}, nil)
		out := &recorder{}

		if err := w.Run(ctx, ScanRequest{}, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(out.messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(out.messages))
		}
		msg := out.last(t)
		if msg.Status != StatusError || msg.Message != "Missing required parameters" {
			t.Errorf("terminal = %+v", msg)
		}
		if workspaceCount(t, root) != 0 {
			t.Error("workspace created for an invalid request")
		}
	})

	t.Run("findings pass through to the success payload", func(t *testing.T) {
		root := t.TempDir()
		w := newScanWorkflow(root, &fakeScanner{report: &Report{Results: findings}}, nil)
		out := &recorder{}

		if err := w.Run(ctx, validReq, out); err != nil {
			t.Fatalf("Run: %v", err)
		}

		msg := out.last(t)
		if msg.Status != StatusSuccess || msg.Message != "Scan completed successfully" {
			t.Fatalf("terminal = %+v", msg)
		}
		got, ok := msg.Data["vulnerabilities"].([]Vulnerability)
		if !ok {
			t.Fatalf("vulnerabilities payload = %T", msg.Data["vulnerabilities"])
		}
		if !reflect.DeepEqual(got, findings) {
			t.Errorf("vulnerabilities = %+v, want %+v", got, findings)
		}
		if out.terminalCount() != 1 {
			t.Errorf("got %d terminal messages, want 1", out.terminalCount())
		}
		if workspaceCount(t, root) != 0 {
			t.Error("workspace left behind after success")
		}
	})

	t.Run("progress sequence precedes the terminal", func(t *testing.T) {
		w := newScanWorkflow(t.TempDir(), &fakeScanner{report: &Report{}}, nil)
		out := &recorder{}

		if err := w.Run(ctx, validReq, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		want := []string{"Initializing scan...", "Cloning repository...", "Running security scan..."}
		for i, text := range want {
			if out.messages[i].Status != StatusProgress || out.messages[i].Message != text {
				t.Errorf("message %d = %+v, want progress %q", i, out.messages[i], text)
			}
		}
	})

	t.Run("workspace failure is a tool execution error", func(t *testing.T) {
		// A missing workspace root makes every Acquire fail.
		w := newScanWorkflow(filepath.Join(t.TempDir(), "missing"), &fakeScanner{}, nil)
		out := &recorder{}

		if err := w.Run(ctx, validReq, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		msg := out.last(t)
		if msg.Status != StatusError {
			t.Fatalf("terminal = %+v", msg)
		}
		if msg.Data["error_type"] != string(KindToolExecution) {
			t.Errorf("error_type = %v, want %s", msg.Data["error_type"], KindToolExecution)
		}
	})

	t.Run("clone failure reports captured stderr", func(t *testing.T) {
		root := t.TempDir()
		gitRunner := &fakeRunner{
			respond: func(name string, args []string) (RunResult, error) {
				return RunResult{ExitCode: 128, Stderr: "fatal: repository not found\n"}, nil
			},
		}
		w := NewScanWorkflow(ScanWorkflowConfig{
			Workspaces: NewWorkspaceManager(root),
			Scanner:    &fakeScanner{},
			GitOptions: []GitOption{WithGitRunner(gitRunner)},
		})
		out := &recorder{}

		if err := w.Run(ctx, validReq, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		msg := out.last(t)
		if msg.Status != StatusError || msg.Message != "Repository clone failed" {
			t.Fatalf("terminal = %+v", msg)
		}
		if msg.Data["error"] != "fatal: repository not found" {
			t.Errorf("error detail = %v", msg.Data["error"])
		}
		if workspaceCount(t, root) != 0 {
			t.Error("workspace left behind after clone failure")
		}
	})

	t.Run("scanner tool failure carries logs and kind", func(t *testing.T) {
		w := newScanWorkflow(t.TempDir(), &fakeScanner{
			err: &WorkflowError{Kind: KindToolExecution, Op: "run scanner", Detail: "scanner logs here"},
		}, nil)
		out := &recorder{}

		if err := w.Run(ctx, validReq, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		msg := out.last(t)
		if msg.Status != StatusError {
			t.Fatalf("terminal = %+v", msg)
		}
		if !strings.Contains(msg.Message, "Security scan failed") || !strings.Contains(msg.Message, "scanner logs here") {
			t.Errorf("message = %q", msg.Message)
		}
		if msg.Data["error_type"] != string(KindToolExecution) {
			t.Errorf("error_type = %v", msg.Data["error_type"])
		}
	})

	t.Run("parse failure carries raw output", func(t *testing.T) {
		w := newScanWorkflow(t.TempDir(), &fakeScanner{
			err: &WorkflowError{Kind: KindReportParse, Op: "parse scan results", Detail: "not json"},
		}, nil)
		out := &recorder{}

		if err := w.Run(ctx, validReq, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		msg := out.last(t)
		if msg.Status != StatusError || msg.Message != "Failed to parse scan results" {
			t.Fatalf("terminal = %+v", msg)
		}
		if msg.Data["error"] != "not json" {
			t.Errorf("error detail = %v", msg.Data["error"])
		}
	})

	t.Run("no webhook means no notifications", func(t *testing.T) {
		notifier := &fakeNotifier{}
		w := newScanWorkflow(t.TempDir(), &fakeScanner{report: &Report{Results: findings}}, notifier)
		out := &recorder{}

		if err := w.Run(ctx, validReq, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(notifier.alerts) != 0 {
			t.Errorf("got %d alerts without a webhook", len(notifier.alerts))
		}
	})

	t.Run("one alert per finding", func(t *testing.T) {
		notifier := &fakeNotifier{}
		two := append([]Vulnerability{}, findings...)
		two = append(two, Vulnerability{Severity: "LOW", Filename: "b.py", LineNumber: 9, IssueText: "assert", Code: "assert x"})
		w := newScanWorkflow(t.TempDir(), &fakeScanner{report: &Report{Results: two}}, notifier)
		out := &recorder{}

		req := validReq
		req.SlackWebhookURL = "https://hooks.slack.test/x"
		if err := w.Run(ctx, req, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(notifier.alerts) != 2 {
			t.Fatalf("got %d alerts, want 2", len(notifier.alerts))
		}
		if notifier.alerts[0].Type != notify.AlertScanFinding {
			t.Errorf("alert type = %q", notifier.alerts[0].Type)
		}
	})

	t.Run("notification failure surfaces after the success terminal", func(t *testing.T) {
		notifier := &fakeNotifier{err: errors.New("webhook 500")}
		w := newScanWorkflow(t.TempDir(), &fakeScanner{report: &Report{Results: findings}}, notifier)
		out := &recorder{}

		req := validReq
		req.SlackWebhookURL = "https://hooks.slack.test/x"
		if err := w.Run(ctx, req, out); err != nil {
			t.Fatalf("Run: %v", err)
		}

		var successIdx, failIdx = -1, -1
		for i, m := range out.messages {
			switch {
			case m.Message == "Scan completed successfully":
				successIdx = i
			case m.Status == StatusError && strings.Contains(m.Message, "Failed to send Slack notification"):
				failIdx = i
			}
		}
		if successIdx < 0 {
			t.Fatal("success terminal never sent")
		}
		if failIdx < 0 {
			t.Fatal("notification failure never reported")
		}
		if failIdx < successIdx {
			t.Error("notification failure reported before the scan terminal")
		}
		if out.messages[failIdx].Data["error_type"] != string(KindNotification) {
			t.Errorf("error_type = %v", out.messages[failIdx].Data["error_type"])
		}
	})

	t.Run("send failure aborts the workflow", func(t *testing.T) {
		root := t.TempDir()
		w := newScanWorkflow(root, &fakeScanner{report: &Report{}}, nil)
		out := &recorder{failAfter: 2}

		err := w.Run(ctx, validReq, out)
		if !errors.Is(err, ErrSendFailed) {
			t.Fatalf("err = %v, want ErrSendFailed", err)
		}
		if workspaceCount(t, root) != 0 {
			t.Error("workspace left behind after send failure")
		}
	})
}
