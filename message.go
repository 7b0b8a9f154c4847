package secflow

// Status is the delivery status carried on every progress message.
type Status string

// Status constants. Progress and Warning may appear any number of times per
// request; Success and Error are terminal and appear exactly once.
const (
	StatusProgress Status = "progress"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
	StatusWarning  Status = "warning"
)

// ProgressMessage is a single server-to-client status event.
type ProgressMessage struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Terminal reports whether the message ends a request's progress stream.
func (m ProgressMessage) Terminal() bool {
	return m.Status == StatusSuccess || m.Status == StatusError
}

// Sender delivers progress messages to the session counterpart. Ordering is
// FIFO per session. A send error means the counterpart is gone; the workflow
// stops without further reporting.
type Sender interface {
	Send(msg ProgressMessage) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(msg ProgressMessage) error

// Send implements Sender.
func (f SenderFunc) Send(msg ProgressMessage) error {
	return f(msg)
}

// ScanRequest asks for a security scan of a repository.
type ScanRequest struct {
	RepoURL         string `json:"repo_url"`
	GitHubToken     string `json:"github_token"`
	SlackWebhookURL string `json:"slack_webhook_url,omitempty"`
}

// Validate checks that all required fields are present.
func (r ScanRequest) Validate() error {
	if r.RepoURL == "" || r.GitHubToken == "" {
		return ErrMissingField
	}
	return nil
}

// FixRequest asks for an automated fix of a single vulnerability.
type FixRequest struct {
	RepoURL         string `json:"repo_url"`
	GitHubToken     string `json:"github_token"`
	Vulnerability   string `json:"vulnerability"`
	FilePath        string `json:"file_path"`
	VulnerableCode  string `json:"vulnerable_code,omitempty"`
	SlackWebhookURL string `json:"slack_webhook_url,omitempty"`
}

// Validate checks that all required fields are present.
func (r FixRequest) Validate() error {
	if r.RepoURL == "" || r.GitHubToken == "" || r.Vulnerability == "" || r.FilePath == "" {
		return ErrMissingField
	}
	return nil
}

// Vulnerability is one finding from the scanner report. Findings pass
// through to the client verbatim in the scan success payload.
type Vulnerability struct {
	Severity   string `json:"issue_severity"`
	Filename   string `json:"filename"`
	LineNumber int    `json:"line_number"`
	IssueText  string `json:"issue_text"`
	Code       string `json:"code"`
}
