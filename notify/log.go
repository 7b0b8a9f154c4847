package notify

import (
	"context"
	"log/slog"
)

// =============================================================================
// LogNotifier
// =============================================================================

// LogNotifier logs alerts using slog (for testing/debugging).
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs to the given logger.
// If logger is nil, uses the default slog logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, alert Alert) error {
	attrs := []any{"type", alert.Type}
	for _, f := range alert.Fields {
		attrs = append(attrs, f.Title, f.Value)
	}
	if alert.Link != nil {
		attrs = append(attrs, "url", alert.Link.URL)
	}

	n.Logger.Log(ctx, slog.LevelInfo, alert.Title, attrs...)
	return nil
}
