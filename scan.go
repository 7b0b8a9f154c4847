package secflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/secflow/notify"
)

// NotifierFactory builds a notifier for a per-request webhook URL.
type NotifierFactory func(webhookURL string) notify.Notifier

// ScanWorkflow clones a repository, runs the containerized scanner against
// it, and streams progress to the session. One Run call handles exactly one
// request and emits exactly one terminal message.
type ScanWorkflow struct {
	workspaces *WorkspaceManager
	scanner    Scanner
	notifiers  NotifierFactory
	gitOpts    []GitOption
	logger     *slog.Logger
}

// ScanWorkflowConfig configures a ScanWorkflow.
type ScanWorkflowConfig struct {
	Workspaces *WorkspaceManager // Workspace manager (required)
	Scanner    Scanner           // Scanner implementation (required)
	Notifiers  NotifierFactory   // Per-request notifier factory (default: Slack)
	GitOptions []GitOption       // Options applied to every git context
	Logger     *slog.Logger      // Logger (default: slog.Default)
}

// NewScanWorkflow creates a scan workflow.
func NewScanWorkflow(cfg ScanWorkflowConfig) *ScanWorkflow {
	w := &ScanWorkflow{
		workspaces: cfg.Workspaces,
		scanner:    cfg.Scanner,
		notifiers:  cfg.Notifiers,
		gitOpts:    cfg.GitOptions,
		logger:     cfg.Logger,
	}
	if w.notifiers == nil {
		w.notifiers = func(url string) notify.Notifier {
			return notify.NewSlackNotifier(url)
		}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Run executes the scan workflow for one request. The returned error is
// non-nil only when the session counterpart is gone; workflow failures are
// reported through the sender as terminal error messages.
func (w *ScanWorkflow) Run(ctx context.Context, req ScanRequest, out Sender) error {
	if err := req.Validate(); err != nil {
		return send(out, ProgressMessage{
			Status:  StatusError,
			Message: "Missing required parameters",
		})
	}

	if err := progress(out, "Initializing scan..."); err != nil {
		return err
	}

	ws, err := w.workspaces.Acquire()
	if err != nil {
		return send(out, ProgressMessage{
			Status:  StatusError,
			Message: err.Error(),
			Data:    map[string]any{"error_type": string(KindToolExecution)},
		})
	}
	defer func() {
		if err := ws.Release(); err != nil {
			w.logger.Info("failed to release workspace", "error", err)
		}
	}()

	if err := progress(out, "Cloning repository..."); err != nil {
		return err
	}

	git := NewGitContext(ws.Dir(), w.gitOpts...)
	if err := git.Clone(ctx, req.RepoURL); err != nil {
		return send(out, ProgressMessage{
			Status:  StatusError,
			Message: "Repository clone failed",
			Data:    map[string]any{"error": gitOutput(err)},
		})
	}

	if err := progress(out, "Running security scan..."); err != nil {
		return err
	}

	report, err := w.scanner.Scan(ctx, ws.Dir())
	if err != nil {
		return send(out, scanFailureMessage(err))
	}

	if err := send(out, ProgressMessage{
		Status:  StatusSuccess,
		Message: "Scan completed successfully",
		Data:    map[string]any{"vulnerabilities": report.Results},
	}); err != nil {
		return err
	}

	// Notification failures never alter the terminal status already sent;
	// they surface as an additional error scoped to the notification step.
	if req.SlackWebhookURL != "" {
		if err := progress(out, "Sending Slack notification..."); err != nil {
			return err
		}
		notifier := w.notifiers(req.SlackWebhookURL)
		for _, v := range report.Results {
			alert := notify.ScanAlert(v.Severity, v.Filename, v.LineNumber, v.IssueText, v.Code)
			if err := notifier.Notify(ctx, alert); err != nil {
				return send(out, ProgressMessage{
					Status:  StatusError,
					Message: fmt.Sprintf("Failed to send Slack notification: %v", err),
					Data:    map[string]any{"error_type": string(KindNotification)},
				})
			}
		}
	}

	return nil
}

// scanFailureMessage maps a scanner error onto its terminal message.
func scanFailureMessage(err error) ProgressMessage {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		switch wfErr.Kind {
		case KindReportParse:
			return ProgressMessage{
				Status:  StatusError,
				Message: "Failed to parse scan results",
				Data:    map[string]any{"error": wfErr.Detail},
			}
		default:
			msg := "Security scan failed"
			if wfErr.Detail != "" {
				msg = fmt.Sprintf("Security scan failed: %s", wfErr.Detail)
			}
			return ProgressMessage{
				Status:  StatusError,
				Message: msg,
				Data:    map[string]any{"error_type": string(wfErr.Kind)},
			}
		}
	}
	return ProgressMessage{
		Status:  StatusError,
		Message: err.Error(),
		Data:    map[string]any{"error_type": string(KindToolExecution)},
	}
}

// send delivers a message, wrapping delivery failures so callers can tell
// transport loss apart from workflow failures.
func send(out Sender, msg ProgressMessage) error {
	if err := out.Send(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// progress sends an informational progress message.
func progress(out Sender, message string) error {
	return send(out, ProgressMessage{Status: StatusProgress, Message: message})
}

// gitOutput extracts the captured stderr from a git error, falling back to
// the error text.
func gitOutput(err error) string {
	var gitErr *GitError
	if errors.As(err, &gitErr) && gitErr.Output != "" {
		return gitErr.Output
	}
	return err.Error()
}
