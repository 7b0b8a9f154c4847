package secflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/secflow/notify"
)

// HostFactory builds a source host client for a repository URL and token.
type HostFactory func(repoURL, token string) (Host, error)

// FixWorkflow clones a repository onto a dedicated branch, invokes the AI
// agent to patch the vulnerable file, pushes the branch, and opens a pull
// request. One Run call handles exactly one request and emits exactly one
// terminal message.
type FixWorkflow struct {
	workspaces *WorkspaceManager
	fixer      Fixer
	hosts      HostFactory
	notifiers  NotifierFactory
	prompts    *PromptLoader
	gitOpts    []GitOption
	newBranch  func() (string, error)
	logger     *slog.Logger
}

// FixWorkflowConfig configures a FixWorkflow.
type FixWorkflowConfig struct {
	Workspaces *WorkspaceManager // Workspace manager (required)
	Fixer      Fixer             // AI agent (required)
	Hosts      HostFactory       // Source host factory (default: HostForURL)
	Notifiers  NotifierFactory   // Per-request notifier factory (default: Slack)
	Prompts    *PromptLoader     // Template loader (default: embedded templates)
	GitOptions []GitOption       // Options applied to every git context
	Logger     *slog.Logger      // Logger (default: slog.Default)
}

// NewFixWorkflow creates a fix workflow.
func NewFixWorkflow(cfg FixWorkflowConfig) *FixWorkflow {
	w := &FixWorkflow{
		workspaces: cfg.Workspaces,
		fixer:      cfg.Fixer,
		hosts:      cfg.Hosts,
		notifiers:  cfg.Notifiers,
		prompts:    cfg.Prompts,
		gitOpts:    cfg.GitOptions,
		newBranch:  NewFixBranchName,
		logger:     cfg.Logger,
	}
	if w.hosts == nil {
		w.hosts = HostForURL
	}
	if w.notifiers == nil {
		w.notifiers = func(url string) notify.Notifier {
			return notify.NewSlackNotifier(url)
		}
	}
	if w.prompts == nil {
		w.prompts = NewPromptLoader()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// fixPRTitle is the fixed title for automated fix pull requests.
const fixPRTitle = "Automated Security Fix"

// Run executes the fix workflow for one request. The returned error is
// non-nil only when the session counterpart is gone; workflow failures are
// reported through the sender as terminal error messages.
func (w *FixWorkflow) Run(ctx context.Context, req FixRequest, out Sender) error {
	if err := req.Validate(); err != nil {
		return send(out, ProgressMessage{
			Status:  StatusError,
			Message: "Missing required parameters",
		})
	}

	if err := progress(out, "Initializing fix..."); err != nil {
		return err
	}

	authURL := AuthenticatedURL(req.RepoURL, req.GitHubToken)

	host, err := w.hosts(req.RepoURL, req.GitHubToken)
	if err != nil {
		return w.fail(out, KindRemoteAPI, err.Error())
	}

	if err := progress(out, "Resolving authenticated identity..."); err != nil {
		return err
	}

	identity, err := host.ResolveIdentity(ctx)
	if err != nil {
		return w.fail(out, KindRemoteAPI, err.Error())
	}

	baseBranch, err := host.DefaultBranch(ctx)
	if err != nil {
		return w.fail(out, KindRemoteAPI, err.Error())
	}

	if err := progress(out, "Creating fix branch..."); err != nil {
		return err
	}

	branch, err := w.newBranch()
	if err != nil {
		return w.fail(out, KindToolExecution, err.Error())
	}

	ws, err := w.workspaces.Acquire()
	if err != nil {
		return w.fail(out, KindToolExecution, err.Error())
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
	if err := git.Clone(ctx, authURL); err != nil {
		return send(out, ProgressMessage{
			Status:  StatusError,
			Message: "Repository clone failed",
			Data:    map[string]any{"error": gitOutput(err)},
		})
	}

	if err := git.CheckoutNew(ctx, branch); err != nil {
		return w.failGit(out, err)
	}
	if err := git.SetRemoteURL(ctx, "origin", authURL); err != nil {
		return w.failGit(out, err)
	}
	if err := git.SetIdentity(ctx, identity.Username, identity.Email); err != nil {
		return w.failGit(out, err)
	}
	// Fetch the default branch so the fix applies on a consistent base.
	if err := git.Fetch(ctx, "origin", baseBranch); err != nil {
		return w.failGit(out, err)
	}

	if err := progress(out, "Applying automated fix..."); err != nil {
		return err
	}

	instruction, err := w.prompts.FixInstruction(req)
	if err != nil {
		return w.fail(out, KindAgent, err.Error())
	}
	if err := w.fixer.Apply(ctx, ws.Dir(), req.FilePath, instruction); err != nil {
		return w.fail(out, KindAgent, err.Error())
	}

	if err := progress(out, "Pushing fix branch..."); err != nil {
		return err
	}

	if err := git.Stage(ctx, req.FilePath); err != nil {
		return w.failGit(out, err)
	}
	if err := git.Commit(ctx, fixPRTitle); err != nil {
		return w.failGit(out, err)
	}
	if err := git.Push(ctx, "origin", branch); err != nil {
		return send(out, ProgressMessage{
			Status:  StatusError,
			Message: "Failed to push changes",
			Data:    map[string]any{"error": gitOutput(err)},
		})
	}

	if err := progress(out, "Creating pull request..."); err != nil {
		return err
	}

	body, err := w.prompts.PRBody(req, branch)
	if err != nil {
		return w.fail(out, KindRemoteAPI, err.Error())
	}

	pr, err := host.CreatePR(ctx, PROptions{
		Title: fixPRTitle,
		Body:  body,
		Base:  baseBranch,
		Head:  branch,
	})
	if err != nil {
		return w.fail(out, KindRemoteAPI, err.Error())
	}

	// Notification failures downgrade to a warning; the PR already exists
	// and the terminal status must reflect that.
	if req.SlackWebhookURL != "" {
		if err := progress(out, "Sending Slack notification..."); err != nil {
			return err
		}
		notifier := w.notifiers(req.SlackWebhookURL)
		alert := notify.FixAlert(req.RepoURL, req.Vulnerability, pr.HTMLURL)
		if err := notifier.Notify(ctx, alert); err != nil {
			if err := send(out, ProgressMessage{
				Status:  StatusWarning,
				Message: fmt.Sprintf("PR created but Slack notification failed: %v", err),
			}); err != nil {
				return err
			}
		}
	}

	return send(out, ProgressMessage{
		Status:  StatusSuccess,
		Message: "Pull request created successfully",
		Data:    map[string]any{"pr_url": pr.HTMLURL},
	})
}

// fail sends a terminal error with the failure kind attached.
func (w *FixWorkflow) fail(out Sender, kind Kind, message string) error {
	return send(out, ProgressMessage{
		Status:  StatusError,
		Message: message,
		Data:    map[string]any{"error_type": string(kind)},
	})
}

// failGit sends a terminal error for a failed git operation, carrying the
// captured stderr.
func (w *FixWorkflow) failGit(out Sender, err error) error {
	return send(out, ProgressMessage{
		Status:  StatusError,
		Message: err.Error(),
		Data:    map[string]any{"error": gitOutput(err)},
	})
}
