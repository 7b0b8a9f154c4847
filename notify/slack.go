package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// SlackNotifier
// =============================================================================

// SlackNotifier sends alerts to a Slack incoming webhook as Block Kit
// messages.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// SlackOption configures SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSlackClient sets the HTTP client used for webhook posts.
func WithSlackClient(client *http.Client) SlackOption {
	return func(n *SlackNotifier) { n.Client = client }
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, alert Alert) error {
	payload := slackPayload{
		Blocks: n.blocksFromAlert(alert),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}

// blocksFromAlert renders an alert as Block Kit blocks: a header, field
// sections in pairs, then optional code and link sections.
func (n *SlackNotifier) blocksFromAlert(alert Alert) []slackBlock {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: alert.Title, Emoji: true},
		},
	}

	for i := 0; i < len(alert.Fields); i += 2 {
		end := i + 2
		if end > len(alert.Fields) {
			end = len(alert.Fields)
		}
		var fields []slackText
		for _, f := range alert.Fields[i:end] {
			fields = append(fields, slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*%s:*\n%s", f.Title, f.Value),
			})
		}
		blocks = append(blocks, slackBlock{Type: "section", Fields: fields})
	}

	if alert.Code != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Code:*\n```%s```", alert.Code)},
		})
	}

	if alert.Link != nil {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Pull Request:* <%s|%s>", alert.Link.URL, alert.Link.Text),
			},
		})
	}

	return blocks
}

// Slack webhook payload types
type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}
