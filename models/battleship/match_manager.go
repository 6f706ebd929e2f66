package battleship

import (
	"sync"

	"github.com/google/uuid"

	cerr "github.com/navalclash/battleship-server/internal/error"
)

// MatchManager owns the Match instances, keyed by match uuid.
// It is injected into the request processor instead of living as
// package-level state. Matches are created when a first session
// needs one and removed when they finish.
type MatchManager struct {
	matches    map[string]*Match
	bySession  map[uint64]string
	maxMatches int
	mu         sync.RWMutex
}

func NewMatchManager(maxMatches int) *MatchManager {
	if maxMatches < 1 {
		maxMatches = 1
	}
	return &MatchManager{
		matches:    make(map[string]*Match, maxMatches),
		bySession:  make(map[uint64]string, maxMatches*MatchPlayerCap),
		maxMatches: maxMatches,
	}
}

// Pairs a session into a match: an existing waiting match is
// joined, otherwise a new one is created if there is room. With
// the default capacity of one match, a third connection while a
// match is full is rejected. Reports whether this call created the
// match and whether the join filled it and started the placement
// phase; both are decided under the manager lock so two racing
// connects can never both claim either role.
func (mm *MatchManager) AssignSession(sessionId uint64) (match *Match, created, started bool, err error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	for _, match := range mm.matches {
		if match.Phase() == PhaseWaitingForPlayers {
			started, err := match.AddPlayer(sessionId)
			if err != nil {
				continue
			}
			mm.bySession[sessionId] = match.Uuid()
			return match, false, started, nil
		}
	}

	if len(mm.matches) >= mm.maxMatches {
		return nil, false, false, cerr.ErrServerFull()
	}

	match = NewMatch(uuid.NewString()[:6], NewDefaultFleet())
	if _, err := match.AddPlayer(sessionId); err != nil {
		return nil, false, false, err
	}
	mm.matches[match.Uuid()] = match
	mm.bySession[sessionId] = match.Uuid()
	return match, true, false, nil
}

func (mm *MatchManager) FindMatch(matchUuid string) (*Match, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	match, prs := mm.matches[matchUuid]
	if !prs {
		return nil, cerr.ErrMatchNotExists(matchUuid)
	}
	return match, nil
}

func (mm *MatchManager) FindMatchBySession(sessionId uint64) (*Match, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	matchUuid, prs := mm.bySession[sessionId]
	if !prs {
		return nil, cerr.ErrPlayerNotInMatch(sessionId)
	}
	match, prs := mm.matches[matchUuid]
	if !prs {
		return nil, cerr.ErrMatchNotExists(matchUuid)
	}
	return match, nil
}

// Drops a finished match and its session index entries. Safe to
// call more than once for the same uuid.
func (mm *MatchManager) TerminateMatch(matchUuid string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	match, prs := mm.matches[matchUuid]
	if !prs {
		return
	}
	for _, id := range match.SessionIds() {
		delete(mm.bySession, id)
	}
	delete(mm.matches, matchUuid)
}

func (mm *MatchManager) ActiveMatches() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return len(mm.matches)
}
