package secflow

import (
	"context"
	"fmt"
	"strings"
)

// Identity is the authenticated user on the source host, used as the
// committer identity for automated fixes.
type Identity struct {
	Username string
	Email    string
}

// PROptions configures pull request creation.
type PROptions struct {
	Title string // PR title (required)
	Body  string // PR description (markdown)
	Base  string // Target branch
	Head  string // Source branch
}

// PullRequest represents a created pull request.
type PullRequest struct {
	Number  int    // PR number/IID
	HTMLURL string // Browser URL of the PR
}

// Host is the source-control host for one repository. Implementations exist
// for GitHub and GitLab.
type Host interface {
	// ResolveIdentity returns the authenticated user's identity.
	ResolveIdentity(ctx context.Context) (*Identity, error)

	// DefaultBranch returns the repository's default branch.
	DefaultBranch(ctx context.Context) (string, error)

	// CreatePR opens a pull request (merge request on GitLab).
	CreatePR(ctx context.Context, opts PROptions) (*PullRequest, error)
}

// HostForURL creates a Host for the repository URL, detecting the platform
// from the URL itself.
func HostForURL(repoURL, token string) (Host, error) {
	platform, err := DetectHost(repoURL)
	if err != nil {
		return nil, err
	}

	switch platform {
	case "github":
		return NewGitHubHostFromURL(token, repoURL)
	case "gitlab":
		return NewGitLabHostFromURL(token, repoURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHost, platform)
	}
}

// DetectHost attempts to detect the source host from a repository URL.
func DetectHost(repoURL string) (string, error) {
	repoURL = strings.ToLower(repoURL)

	if strings.Contains(repoURL, "github.com") {
		return "github", nil
	}
	if strings.Contains(repoURL, "gitlab") {
		return "gitlab", nil
	}

	return "", ErrUnknownHost
}

// ParseRepoFromURL extracts owner and repo from a git remote URL.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	// Handle SSH URLs: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(remoteURL, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		pathParts := strings.Split(path, "/")
		if len(pathParts) != 2 {
			return "", "", fmt.Errorf("invalid repository path")
		}
		return pathParts[0], pathParts[1], nil
	}

	// Handle HTTPS URLs: https://github.com/owner/repo.git
	remoteURL = strings.TrimPrefix(remoteURL, "https://")
	remoteURL = strings.TrimPrefix(remoteURL, "http://")
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	parts := strings.Split(remoteURL, "/")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid URL format")
	}

	// Last two parts are owner/repo
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
