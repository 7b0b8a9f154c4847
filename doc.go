// Package secflow orchestrates automated security scanning and remediation
// for git repositories.
//
// The package exposes two workflows, each driven by a single client request
// and reporting progress as a stream of messages over a session:
//
//   - ScanWorkflow clones a repository, runs a containerized static analyzer
//     against it, and returns the parsed findings.
//   - FixWorkflow clones a repository, invokes an AI coding agent to patch a
//     vulnerable file on a dedicated branch, pushes the branch, and opens a
//     pull request on the source host.
//
// External collaborators (git, the container runtime, the AI agent, the
// source-host API, and notification webhooks) sit behind small interfaces so
// workflows can be exercised hermetically in tests.
//
// The server package wires both workflows to WebSocket endpoints; the notify
// package delivers scan and fix alerts to Slack-compatible webhooks.
package secflow
