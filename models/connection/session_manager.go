package connection

import (
	"log"
	"sync"

	cerr "github.com/navalclash/battleship-server/internal/error"
)

// SessionManager tracks the connected clients. Ids increase
// monotonically from 1 and are never reused while another session
// is active, so a late message can never be attributed to the
// wrong player.
type SessionManager struct {
	sessions map[uint64]*Session
	nextId   uint64
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[uint64]*Session, MatchSessionEstimate),
		nextId:   1,
	}
}

// Two players per match plus headroom for rejected extras.
const MatchSessionEstimate = 4

func (sm *SessionManager) Register(transport Transport) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session := NewSession(sm.nextId, transport)
	sm.sessions[session.Id()] = session
	sm.nextId++

	log.Printf("session registered: %d\tremote addr: %s", session.Id(), session.RemoteAddr())
	return session
}

func (sm *SessionManager) FindSession(sessionId uint64) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, prs := sm.sessions[sessionId]
	if !prs {
		return nil, cerr.ErrSessionNotFound(sessionId)
	}
	return session, nil
}

// Unregister closes the session transport and forgets the id.
// Idempotent: a second call for the same id is a no-op.
func (sm *SessionManager) Unregister(sessionId uint64) {
	sm.mu.Lock()
	session, prs := sm.sessions[sessionId]
	if prs {
		delete(sm.sessions, sessionId)
	}
	sm.mu.Unlock()

	if !prs {
		return
	}
	session.Close()
	log.Printf("session deleted: %d", sessionId)
}

func (sm *SessionManager) ActiveCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Deliver pushes a message to the identified session. A missing
// session or a write failure reports an error so the caller can
// treat it as a disconnect.
func (sm *SessionManager) Deliver(sessionId uint64, flag, command, payload string) error {
	session, err := sm.FindSession(sessionId)
	if err != nil {
		return err
	}
	return session.Deliver(flag, command, payload)
}
