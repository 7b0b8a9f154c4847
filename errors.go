package secflow

import "errors"

// Workflow errors.
var (
	// ErrMissingField indicates a request is missing a required field.
	ErrMissingField = errors.New("missing required parameters")

	// ErrWorkspaceFailed indicates the temporary workspace could not be created.
	ErrWorkspaceFailed = errors.New("workspace creation failed")

	// ErrSendFailed indicates the session counterpart is gone and no further
	// messages can be delivered.
	ErrSendFailed = errors.New("progress send failed")
)

// Git errors.
var (
	// ErrGitExit indicates a git command exited non-zero.
	ErrGitExit = errors.New("git command failed")
)

// Agent errors.
var (
	// ErrAgentNotFound indicates the AI agent binary was not found.
	ErrAgentNotFound = errors.New("fix agent not found")

	// ErrAgentTimeout indicates the AI agent execution timed out.
	ErrAgentTimeout = errors.New("fix agent timed out")

	// ErrAgentFailed indicates the AI agent exited with an error.
	ErrAgentFailed = errors.New("fix agent failed")
)

// Scanner errors.
var (
	// ErrScannerNotFound indicates the container runtime binary was not found.
	ErrScannerNotFound = errors.New("container runtime not found")
)

// Host errors.
var (
	// ErrUnknownHost indicates the repository URL points at an unsupported
	// source host.
	ErrUnknownHost = errors.New("unknown source host")
)

// Kind classifies a workflow failure. The kind is carried on the terminal
// error message as error_type so clients can branch on failure site.
type Kind string

const (
	KindValidation    Kind = "ValidationError"
	KindTransport     Kind = "TransportFailure"
	KindToolExecution Kind = "ToolExecutionFailure"
	KindReportParse   Kind = "ReportParseFailure"
	KindRemoteAPI     Kind = "RemoteAPIFailure"
	KindAgent         Kind = "AgentFailure"
	KindNotification  Kind = "NotificationFailure"
)

// WorkflowError is a failure caught at the workflow boundary. Detail carries
// captured output (stderr, container logs) when the failing tool produced any.
type WorkflowError struct {
	Kind   Kind   // Failure site classification
	Op     string // Operation that failed (e.g., "clone", "push")
	Detail string // Captured output from the failing tool
	Err    error  // Underlying error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// GitError wraps a git command error with context.
type GitError struct {
	Op     string // Operation that failed (e.g., "clone", "push")
	Output string // Captured stderr output
	Err    error  // Underlying error
}

func (e *GitError) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}
