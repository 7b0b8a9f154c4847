// Package notify delivers security alerts to external sinks.
//
// The package defines two alert shapes: a scan-finding alert carrying one
// scanner result, and a fix alert carrying the pull request opened for an
// automated fix. SlackNotifier renders alerts as Block Kit messages;
// WebhookNotifier posts them as plain JSON; LogNotifier and MultiNotifier
// support testing and fan-out.
//
// Delivery is fire-and-forget: notifiers never retry, and callers are
// expected to downgrade or drop failures rather than fail a workflow on
// them.
package notify
