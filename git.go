package secflow

import (
	"context"
	"strings"
)

// AuthenticatedURL rewrites an https repository URL to embed the access
// token for authenticated transport.
func AuthenticatedURL(repoURL, token string) string {
	return strings.Replace(repoURL, "https://", "https://x-access-token:"+token+"@", 1)
}

// GitContext runs git commands inside a single working directory. Every
// command receives the directory explicitly so concurrent workflow
// invocations never share process-wide state.
type GitContext struct {
	workDir string        // Directory commands run in
	binary  string        // Git binary (defaults to "git")
	runner  CommandRunner // Command runner (defaults to ExecRunner)
}

// GitOption configures GitContext.
type GitOption func(*GitContext)

// WithGitBinary sets the git binary path.
func WithGitBinary(binary string) GitOption {
	return func(g *GitContext) {
		g.binary = binary
	}
}

// WithGitRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithGitRunner(runner CommandRunner) GitOption {
	return func(g *GitContext) {
		g.runner = runner
	}
}

// NewGitContext creates a git context operating in workDir.
func NewGitContext(workDir string, opts ...GitOption) *GitContext {
	g := &GitContext{
		workDir: workDir,
		binary:  "git",
		runner:  NewExecRunner(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WorkDir returns the directory git commands run in.
func (g *GitContext) WorkDir() string {
	return g.workDir
}

// Clone clones the repository into the context's working directory.
// The directory must exist and be empty.
func (g *GitContext) Clone(ctx context.Context, repoURL string) error {
	// Clone has no repository to run in yet, so it runs from the parent.
	result, err := g.runner.Run(ctx, "", g.binary, "clone", repoURL, g.workDir)
	if err != nil {
		return &GitError{Op: "clone", Err: err}
	}
	if result.ExitCode != 0 {
		return g.exitError("clone", result)
	}
	return nil
}

// CheckoutNew creates and switches to a new branch.
func (g *GitContext) CheckoutNew(ctx context.Context, branch string) error {
	return g.run(ctx, "checkout branch", "checkout", "-b", branch)
}

// SetRemoteURL points the named remote at url.
func (g *GitContext) SetRemoteURL(ctx context.Context, remote, url string) error {
	return g.run(ctx, "set remote", "remote", "set-url", remote, url)
}

// SetIdentity sets the committer name and email for this repository.
func (g *GitContext) SetIdentity(ctx context.Context, name, email string) error {
	if err := g.run(ctx, "set user name", "config", "user.name", name); err != nil {
		return err
	}
	return g.run(ctx, "set user email", "config", "user.email", email)
}

// Fetch fetches a branch from the remote.
func (g *GitContext) Fetch(ctx context.Context, remote, branch string) error {
	return g.run(ctx, "fetch", "fetch", remote, branch)
}

// Stage adds files to the staging area.
func (g *GitContext) Stage(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	return g.run(ctx, "stage files", args...)
}

// Commit creates a commit with the given message. A clean tree is not an
// error: the fix agent may already have committed its own change.
func (g *GitContext) Commit(ctx context.Context, message string) error {
	result, err := g.runner.Run(ctx, g.workDir, g.binary, "commit", "-m", message)
	if err != nil {
		return &GitError{Op: "commit", Err: err}
	}
	if result.ExitCode != 0 {
		if strings.Contains(result.Stdout, "nothing to commit") ||
			strings.Contains(result.Stderr, "nothing to commit") {
			return nil
		}
		return g.exitError("commit", result)
	}
	return nil
}

// Push pushes the branch to the remote.
func (g *GitContext) Push(ctx context.Context, remote, branch string) error {
	return g.run(ctx, "push", "push", remote, branch)
}

// run executes a git subcommand and converts a non-zero exit into a GitError
// carrying the captured stderr.
func (g *GitContext) run(ctx context.Context, op string, args ...string) error {
	result, err := g.runner.Run(ctx, g.workDir, g.binary, args...)
	if err != nil {
		return &GitError{Op: op, Err: err}
	}
	if result.ExitCode != 0 {
		return g.exitError(op, result)
	}
	return nil
}

func (g *GitContext) exitError(op string, result RunResult) error {
	output := result.TrimmedStderr()
	if output == "" {
		output = result.TrimmedStdout()
	}
	return &GitError{Op: op, Output: output, Err: ErrGitExit}
}
