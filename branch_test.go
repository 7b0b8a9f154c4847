package secflow

import (
	"regexp"
	"testing"
)

func TestNewFixBranchName(t *testing.T) {
	pattern := regexp.MustCompile(`^security-fix-[0-9a-f]{8}$`)

	t.Run("format", func(t *testing.T) {
		name, err := NewFixBranchName()
		if err != nil {
			t.Fatalf("NewFixBranchName: %v", err)
		}
		if !pattern.MatchString(name) {
			t.Errorf("branch %q does not match %v", name, pattern)
		}
	})

	t.Run("unique per invocation", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			name, err := NewFixBranchName()
			if err != nil {
				t.Fatalf("NewFixBranchName: %v", err)
			}
			if seen[name] {
				t.Fatalf("duplicate branch name %q", name)
			}
			seen[name] = true
		}
	})
}
