package connection

import (
	"sync"
	"time"

	cerr "github.com/navalclash/battleship-server/internal/error"
)

// Session represents one connected client: its id, transport
// handle and liveness flag. Owned by the session manager and only
// referenced by the match. Close is idempotent; after the first
// call the transport is gone and further delivers fail.
type Session struct {
	id        uint64
	transport Transport
	createdAt time.Time

	mu    sync.Mutex
	alive bool
}

func NewSession(id uint64, transport Transport) *Session {
	return &Session{
		id:        id,
		transport: transport,
		createdAt: time.Now(),
		alive:     true,
	}
}

func (s *Session) Id() uint64 {
	return s.id
}

func (s *Session) RemoteAddr() string {
	return s.transport.RemoteAddr()
}

func (s *Session) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Blocks on the transport until the next inbound message.
func (s *Session) Read() (Message, error) {
	return s.transport.ReadMessage()
}

// Deliver pushes one message to the client. Both the session's own
// loop and the opponent's loop deliver here and the transports do
// not tolerate concurrent writers, so writes are serialized through
// mu. A returned error means the connection should be treated as
// dropped.
func (s *Session) Deliver(flag, command, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive {
		return cerr.ErrSessionClosed(s.id)
	}
	return s.transport.WriteMessage(NewMessage(flag, command, payload))
}

// Close marks the session dead and closes the transport exactly
// once. Calling it twice is a no-op, not an error.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive {
		return
	}
	s.alive = false
	_ = s.transport.Close()
}
