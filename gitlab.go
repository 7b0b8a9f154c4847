package secflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// GitLabHost implements Host for GitLab repositories. Pull requests map to
// merge requests.
type GitLabHost struct {
	client    *gitlab.Client
	projectID string // "namespace/project" path
}

// NewGitLabHost creates a GitLab host. baseURL is the instance URL (empty
// for gitlab.com); projectID is the "namespace/project" path.
func NewGitLabHost(token, baseURL, projectID string) (*GitLabHost, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var client *gitlab.Client
	var err error

	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabHost{
		client:    client,
		projectID: projectID,
	}, nil
}

// NewGitLabHostFromURL creates a GitLab host from a repository URL.
// Example: "https://gitlab.com/namespace/project.git"
func NewGitLabHostFromURL(token, repoURL string) (*GitLabHost, error) {
	owner, repo, err := ParseRepoFromURL(repoURL)
	if err != nil {
		return nil, fmt.Errorf("parse repository URL: %w", err)
	}

	// Extract base URL for self-hosted instances
	var baseURL string
	if !strings.Contains(repoURL, "gitlab.com") {
		trimmed := strings.TrimPrefix(repoURL, "https://")
		trimmed = strings.TrimPrefix(trimmed, "http://")
		parts := strings.Split(trimmed, "/")
		if len(parts) > 0 {
			baseURL = "https://" + parts[0]
		}
	}

	return NewGitLabHost(token, baseURL, owner+"/"+repo)
}

// ResolveIdentity returns the token's authenticated user.
func (h *GitLabHost) ResolveIdentity(ctx context.Context) (*Identity, error) {
	user, _, err := h.client.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return &Identity{
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// DefaultBranch returns the project's default branch.
func (h *GitLabHost) DefaultBranch(ctx context.Context) (string, error) {
	project, _, err := h.client.Projects.GetProject(h.projectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("get project: %w", err)
	}
	return project.DefaultBranch, nil
}

// CreatePR opens a merge request.
func (h *GitLabHost) CreatePR(ctx context.Context, opts PROptions) (*PullRequest, error) {
	mrOpts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(opts.Title),
		Description:  gitlab.Ptr(opts.Body),
		SourceBranch: gitlab.Ptr(opts.Head),
		TargetBranch: gitlab.Ptr(opts.Base),
	}

	mr, _, err := h.client.MergeRequests.CreateMergeRequest(h.projectID, mrOpts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("create MR: %w", err)
	}

	return &PullRequest{
		Number:  mr.IID,
		HTMLURL: mr.WebURL,
	}, nil
}
