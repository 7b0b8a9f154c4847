package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Registry tracks active connections. Insert on connect, remove on
// disconnect; safe under concurrent connect/disconnect.
type Registry struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*websocket.Conn]struct{})}
}

// Add registers a connection.
func (r *Registry) Add(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = struct{}{}
}

// Remove unregisters a connection.
func (r *Registry) Remove(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn)
}

// Len returns the number of active connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
