package server

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/randalmurphal/secflow"
)

// Session is one client connection. It implements secflow.Sender; messages
// are written FIFO under a lock so a workflow and the session loop never
// interleave frames.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewSession wraps a websocket connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{conn: conn}
}

// Send implements secflow.Sender.
func (s *Session) Send(msg secflow.ProgressMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Receive reads the next JSON request into v. It blocks until a request
// arrives or the connection closes.
func (s *Session) Receive(v any) error {
	return s.conn.ReadJSON(v)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
