package secflow

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubHost implements Host for GitHub repositories.
type GitHubHost struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubHost creates a GitHub host for owner/repo.
// token is a personal access token or GitHub App token.
func NewGitHubHost(token, owner, repo string) (*GitHubHost, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)

	return &GitHubHost{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

// NewGitHubHostFromURL creates a GitHub host from a repository URL.
// Example: "https://github.com/acme/api.git"
func NewGitHubHostFromURL(token, repoURL string) (*GitHubHost, error) {
	owner, repo, err := ParseRepoFromURL(repoURL)
	if err != nil {
		return nil, fmt.Errorf("parse repository URL: %w", err)
	}
	return NewGitHubHost(token, owner, repo)
}

// ResolveIdentity returns the token's authenticated user.
func (h *GitHubHost) ResolveIdentity(ctx context.Context) (*Identity, error) {
	user, _, err := h.client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return &Identity{
		Username: user.GetLogin(),
		Email:    user.GetEmail(),
	}, nil
}

// DefaultBranch returns the repository's default branch.
func (h *GitHubHost) DefaultBranch(ctx context.Context) (string, error) {
	repo, _, err := h.client.Repositories.Get(ctx, h.owner, h.repo)
	if err != nil {
		return "", fmt.Errorf("get repository: %w", err)
	}
	return repo.GetDefaultBranch(), nil
}

// CreatePR opens a pull request.
func (h *GitHubHost) CreatePR(ctx context.Context, opts PROptions) (*PullRequest, error) {
	newPR := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Body:  github.String(opts.Body),
		Base:  github.String(opts.Base),
		Head:  github.String(opts.Head),
	}

	pr, _, err := h.client.PullRequests.Create(ctx, h.owner, h.repo, newPR)
	if err != nil {
		return nil, fmt.Errorf("create PR: %w", err)
	}

	return &PullRequest{
		Number:  pr.GetNumber(),
		HTMLURL: pr.GetHTMLURL(),
	}, nil
}
