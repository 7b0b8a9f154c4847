package secflow

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// fixBranchAlphabet keeps suffixes lowercase hex so branch names are valid
// refs on every host.
const fixBranchAlphabet = "0123456789abcdef"

// fixBranchSuffixLen gives 32 bits of randomness, enough that two branches
// generated for the same repository never collide in practice.
const fixBranchSuffixLen = 8

// NewFixBranchName generates a unique branch name for one fix invocation,
// of the form "security-fix-<hex>".
func NewFixBranchName() (string, error) {
	suffix, err := nanoid.Generate(fixBranchAlphabet, fixBranchSuffixLen)
	if err != nil {
		return "", fmt.Errorf("generate branch suffix: %w", err)
	}
	return "security-fix-" + suffix, nil
}
