package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/randalmurphal/secflow"
	"github.com/randalmurphal/secflow/auth"
)

// ScanRunner executes one scan request, streaming progress to the sender.
type ScanRunner interface {
	Run(ctx context.Context, req secflow.ScanRequest, out secflow.Sender) error
}

// FixRunner executes one fix request, streaming progress to the sender.
type FixRunner interface {
	Run(ctx context.Context, req secflow.FixRequest, out secflow.Sender) error
}

var (
	_ ScanRunner = (*secflow.ScanWorkflow)(nil)
	_ FixRunner  = (*secflow.FixWorkflow)(nil)
)

// Server routes WebSocket sessions to the scan and fix workflows.
type Server struct {
	scan     ScanRunner
	fix      FixRunner
	verifier *auth.Verifier
	registry *Registry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// Config configures a Server.
type Config struct {
	Scan     ScanRunner     // Scan workflow (required)
	Fix      FixRunner      // Fix workflow (required)
	Verifier *auth.Verifier // Endpoint auth (default: disabled)
	Logger   *slog.Logger   // Logger (default: slog.Default)
}

// New creates a server.
func New(cfg Config) *Server {
	s := &Server{
		scan:     cfg.Scan,
		fix:      cfg.Fix,
		verifier: cfg.Verifier,
		registry: NewRegistry(),
		upgrader: websocket.Upgrader{
			// Tokens arrive in the request body, not cookies, so
			// cross-origin upgrades carry no ambient authority.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: cfg.Logger,
	}
	if s.verifier == nil {
		s.verifier = auth.NewVerifier(nil, "")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Registry returns the active-connection registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler returns the HTTP handler serving both WebSocket endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/scan/", s.handleScan)
	mux.HandleFunc("/ws/fix/", s.handleFix)
	return mux
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	serveSession(s, w, r, s.scan.Run)
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	serveSession(s, w, r, s.fix.Run)
}

// serveSession upgrades the request and runs the session loop: one request
// at a time, each to completion, until the client disconnects.
func serveSession[R any](s *Server, w http.ResponseWriter, r *http.Request,
	run func(context.Context, R, secflow.Sender) error) {

	if err := s.verifier.Authorize(r); err != nil {
		s.logger.Warn("rejected unauthorized session", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	session := NewSession(conn)
	s.registry.Add(conn)
	defer func() {
		s.registry.Remove(conn)
		session.Close()
	}()

	s.logger.Info("session opened", "remote", r.RemoteAddr, "path", r.URL.Path)

	for {
		var req R
		if err := session.Receive(&req); err != nil {
			s.logger.Info("session closed", "remote", r.RemoteAddr, "error", err)
			return
		}

		// Disconnect mid-workflow does not cancel in-flight external
		// calls; the workflow stops at its next send instead.
		if err := run(context.Background(), req, session); err != nil {
			s.logger.Info("session send failed, tearing down", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}
