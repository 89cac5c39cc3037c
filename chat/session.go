package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/swiftserve/swiftserve-chat-api/middleware"
)

// sendBufferSize bounds the per-session outbound queue. A session that
// cannot drain it fast enough misses frames rather than blocking the room.
const sendBufferSize = 256

// Session is one authenticated, live connection and its bound identity.
// The identity is set once at authentication and never changes. Room
// membership lives in the hub; the rooms set here is the session's own
// view of it, guarded by the hub's lock.
type Session struct {
	ID       string
	Identity middleware.Identity

	conn  *websocket.Conn
	send  chan []byte
	rooms map[uint]bool

	mu     sync.Mutex
	closed bool
}

// NewSession creates a session for a verified identity. conn may be nil in
// tests that only exercise the in-memory fan-out.
func NewSession(identity middleware.Identity, conn *websocket.Conn) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[uint]bool),
	}
}

// deliver queues a frame for the write pump. It reports false when the
// session is closed or its buffer is full; a broadcast never blocks on one
// slow session.
func (s *Session) deliver(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// close shuts the outbound queue. Safe to call more than once.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}
