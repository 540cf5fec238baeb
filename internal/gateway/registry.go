package gateway

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the part of *websocket.Conn a session needs.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

const closeWriteWait = time.Second

// ConnectedServer is one authenticated, open game-server stream. The record
// is the only holder of the transport.
type ConnectedServer struct {
	id          string
	conn        Transport
	connectedAt time.Time
	lastAlive   atomic.Int64 // unix millis
}

func newConnectedServer(id string, conn Transport, now time.Time) *ConnectedServer {
	s := &ConnectedServer{id: id, conn: conn, connectedAt: now}
	s.lastAlive.Store(now.UnixMilli())
	return s
}

func (s *ConnectedServer) ID() string { return s.id }

func (s *ConnectedServer) ConnectedAt() time.Time { return s.connectedAt }

func (s *ConnectedServer) LastAlive() time.Time {
	return time.UnixMilli(s.lastAlive.Load())
}

// Touch records traffic from the server.
func (s *ConnectedServer) Touch(t time.Time) {
	s.lastAlive.Store(t.UnixMilli())
}

// Close sends a close frame with code and reason, then closes the transport.
// Safe to call concurrently with a blocked ReadMessage.
func (s *ConnectedServer) Close(code int, reason string) error {
	return closeTransport(s.conn, code, reason)
}

func closeTransport(conn Transport, code int, reason string) error {
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(code, truncateReason(reason))
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	return conn.Close()
}

// Control frame payloads are limited to 125 bytes, two of which carry the code.
func truncateReason(reason string) string {
	const limit = 123
	if len(reason) <= limit {
		return reason
	}
	return strings.ToValidUTF8(reason[:limit], "")
}

// ServerInfo is a point-in-time view of a ConnectedServer.
type ServerInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connectedAt"`
	LastAlive   time.Time `json:"lastAlive"`
}

// Registry holds the currently connected game servers keyed by identity.
type Registry struct {
	mu      sync.Mutex
	servers map[string]*ConnectedServer
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		servers: make(map[string]*ConnectedServer),
		now:     time.Now,
	}
}

// TryRegister inserts a record for id unless one already exists. On conflict
// it returns ErrAlreadyConnected and leaves the existing record alone.
func (r *Registry) TryRegister(id string, conn Transport) (*ConnectedServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.servers[id]; ok {
		return nil, ErrAlreadyConnected
	}
	s := newConnectedServer(id, conn, r.now())
	r.servers[id] = s
	return s, nil
}

// Remove drops the record for id. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servers, id)
}

// Release drops s only if it is still the record held for its id, so a
// stale session cannot evict a reconnect.
func (r *Registry) Release(s *ConnectedServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.servers[s.id] == s {
		delete(r.servers, s.id)
	}
}

func (r *Registry) Find(id string) (*ConnectedServer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.servers)
}

// Servers returns a snapshot sorted by id.
func (r *Registry) Servers() []ServerInfo {
	r.mu.Lock()
	out := make([]ServerInfo, 0, len(r.servers))
	for _, s := range r.servers {
		out = append(out, ServerInfo{ID: s.id, ConnectedAt: s.connectedAt, LastAlive: s.LastAlive()})
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b ServerInfo) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// CloseAll closes every registered transport with a going-away frame. The
// owning sessions see the read error and deregister themselves.
func (r *Registry) CloseAll(reason string) {
	r.mu.Lock()
	servers := make([]*ConnectedServer, 0, len(r.servers))
	for _, s := range r.servers {
		servers = append(servers, s)
	}
	r.mu.Unlock()

	for _, s := range servers {
		_ = s.Close(websocket.CloseGoingAway, reason)
	}
}
