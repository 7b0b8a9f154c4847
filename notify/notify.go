package notify

import (
	"context"
	"strconv"
)

// =============================================================================
// Alert Types
// =============================================================================

// AlertType represents the kind of security alert.
type AlertType string

// Alert type constants.
const (
	AlertScanFinding AlertType = "scan_finding"
	AlertFixCreated  AlertType = "fix_created"
)

// Field is one titled value rendered in an alert. Fields keep their order.
type Field struct {
	Title string
	Value string
}

// Link is an optional call-to-action rendered at the end of an alert.
type Link struct {
	Text string
	URL  string
}

// Alert describes one security notification.
type Alert struct {
	Type   AlertType
	Title  string  // Headline (e.g., "Security Vulnerability Found")
	Fields []Field // Ordered detail fields
	Code   string  // Optional code snippet
	Link   *Link   // Optional link section
}

// ScanAlert builds the alert for a single scanner finding.
func ScanAlert(severity, filename string, line int, issue, code string) Alert {
	return Alert{
		Type:  AlertScanFinding,
		Title: "⚠️ Security Vulnerability Found",
		Fields: []Field{
			{Title: "Severity", Value: severity},
			{Title: "File", Value: filename},
			{Title: "Line Number", Value: strconv.Itoa(line)},
			{Title: "Issue", Value: issue},
		},
		Code: code,
	}
}

// FixAlert builds the alert for a created fix pull request.
func FixAlert(repoURL, vulnerability, prURL string) Alert {
	return Alert{
		Type:  AlertFixCreated,
		Title: "🛡️ Security Vulnerability Fix Alert",
		Fields: []Field{
			{Title: "Repository", Value: repoURL},
			{Title: "Vulnerability", Value: vulnerability},
		},
		Link: &Link{Text: "View Fix PR", URL: prURL},
	}
}

// =============================================================================
// Notifier Interface
// =============================================================================

// Notifier dispatches security alerts. Implementations never retry and never
// block a workflow's terminal status; callers decide whether a failure
// becomes a warning or an error.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}
