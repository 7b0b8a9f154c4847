// Package server exposes the scan and fix workflows over WebSocket
// endpoints.
//
// Each connection is one session: the client sends a JSON request, the
// matching workflow runs to completion while streaming progress messages
// back, and the session then waits for the next request. Sessions are
// independent; a slow workflow on one connection never blocks another.
//
// Client disconnect tears the session down but does not cancel an in-flight
// workflow's external calls; the workflow notices the dead connection on its
// next send and stops.
package server
