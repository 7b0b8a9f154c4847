// Package testutil provides shared helpers for secflow tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// SampleReport is a minimal scanner report with one finding.
const SampleReport = `{"results":[{"issue_severity":"HIGH","filename":"a.py","line_number":3,"issue_text":"eval use","code":"eval(x)"}]}`

// EmptyReport is a scanner report with no findings.
const EmptyReport = `{"results":[]}`

// SetupTestRepo creates a temporary git repository with one commit.
// The repository is automatically cleaned up when the test ends.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test User")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repository\n"), 0o644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}

	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

// runGit executes a git command in dir, failing the test on error.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}
