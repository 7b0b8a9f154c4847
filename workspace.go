package secflow

import (
	"fmt"
	"os"
)

// Workspace is an ephemeral working directory owned by exactly one workflow
// invocation. Release removes it and everything under it.
type Workspace struct {
	dir string
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Release deletes the workspace. Safe to call on a nil workspace or more
// than once.
func (w *Workspace) Release() error {
	if w == nil || w.dir == "" {
		return nil
	}
	dir := w.dir
	w.dir = ""
	return os.RemoveAll(dir)
}

// WorkspaceManager creates isolated temporary working directories.
type WorkspaceManager struct {
	root string // Parent directory for workspaces (empty = system temp dir)
}

// NewWorkspaceManager creates a workspace manager. If root is empty,
// workspaces are created under the system temporary directory.
func NewWorkspaceManager(root string) *WorkspaceManager {
	return &WorkspaceManager{root: root}
}

// Acquire returns a freshly created, empty, uniquely named directory.
func (m *WorkspaceManager) Acquire() (*Workspace, error) {
	dir, err := os.MkdirTemp(m.root, "secflow-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspaceFailed, err)
	}
	return &Workspace{dir: dir}, nil
}
