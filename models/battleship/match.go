package battleship

import (
	"sync"
	"time"

	cerr "github.com/navalclash/battleship-server/internal/error"
)

const (
	PhaseWaitingForPlayers uint8 = iota
	PhasePlacement
	PhaseInProgress
	PhaseFinished
)

const MatchPlayerCap = 2

// Match is the aggregate for one two-player game and the single
// source of truth for its boards, placement records, phase and
// turn. Every read and write goes through mu, including the
// placement timeout path, so two goroutines can never interleave
// a read-modify-write on the same match. Phases only ever move
// forward.
type Match struct {
	mu sync.Mutex

	uuid        string
	fleet       Fleet
	players     map[uint64]*Player
	order       []uint64
	phase       uint8
	currentTurn uint64

	placementTimer *time.Timer
}

func NewMatch(matchUuid string, fleet Fleet) *Match {
	return &Match{
		uuid:    matchUuid,
		fleet:   fleet,
		players: make(map[uint64]*Player, MatchPlayerCap),
		order:   make([]uint64, 0, MatchPlayerCap),
		phase:   PhaseWaitingForPlayers,
	}
}

func (m *Match) Uuid() string {
	return m.uuid
}

func (m *Match) Fleet() Fleet {
	return m.fleet
}

func (m *Match) Phase() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Match) CurrentTurn() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTurn
}

func (m *Match) SessionIds() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint64, len(m.order))
	copy(ids, m.order)
	return ids
}

// Registers a session with the match. The second registration
// moves the match into the placement phase; the caller is then
// responsible for the placement-start broadcast and for arming
// the placement timer.
func (m *Match) AddPlayer(sessionId uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseWaitingForPlayers {
		return false, cerr.ErrWrongPhase("join match")
	}

	m.players[sessionId] = NewPlayer(sessionId, m.fleet)
	m.order = append(m.order, sessionId)

	if len(m.players) == MatchPlayerCap {
		m.phase = PhasePlacement
		return true, nil
	}
	return false, nil
}

type PlacementOutcome struct {
	BoardView      string
	RemainingFleet string

	// Set when this placement completed both players and the
	// match moved to in-progress.
	MatchReady bool
	FirstTurn  uint64
	Views      map[uint64]string
}

// Validates and commits one ship placement for the given session.
// Players place independently during the placement phase; when
// both are placement-complete the timer is disarmed and the match
// transitions to in-progress, with the first-registered session
// holding the turn. The disarm happens under the same lock as the
// transition so a concurrently firing timer can never evict after
// both players have finished.
func (m *Match) PlaceShip(sessionId uint64, shipName string, x, y int, orientation uint8) (PlacementOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var outcome PlacementOutcome

	if m.phase != PhasePlacement {
		return outcome, cerr.ErrWrongPhase("place ships")
	}
	p, prs := m.players[sessionId]
	if !prs {
		return outcome, cerr.ErrPlayerNotInMatch(sessionId)
	}

	if err := p.PlaceShip(shipName, x, y, orientation); err != nil {
		return outcome, err
	}

	outcome.BoardView = p.Board.Render(true)
	outcome.RemainingFleet = p.RemainingFleet()

	if !m.allPlacementCompleteLocked() {
		return outcome, nil
	}

	m.disarmPlacementTimerLocked()
	m.phase = PhaseInProgress
	m.currentTurn = m.order[0]

	outcome.MatchReady = true
	outcome.FirstTurn = m.currentTurn
	outcome.Views = m.viewsLocked()
	return outcome, nil
}

func (m *Match) allPlacementCompleteLocked() bool {
	if len(m.players) < MatchPlayerCap {
		return false
	}
	for _, p := range m.players {
		if !p.IsPlacementComplete() {
			return false
		}
	}
	return true
}

type ShotOutcome struct {
	Result     uint8
	SunkShip   string
	Win        bool
	DefenderId uint64

	// Zero when the shot did not change state (repeat hit) or won
	// the match.
	NextTurn uint64
	Views    map[uint64]string
}

// Resolves a shot from the session holding the turn against the
// opponent's board. A repeat hit changes neither state nor turn.
// A hit that leaves the defender without ship cells finishes the
// match; any other hit or miss flips the turn.
func (m *Match) Shoot(sessionId uint64, x, y int) (ShotOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var outcome ShotOutcome

	if m.phase != PhaseInProgress {
		return outcome, cerr.ErrWrongPhase("fire")
	}
	if _, prs := m.players[sessionId]; !prs {
		return outcome, cerr.ErrPlayerNotInMatch(sessionId)
	}
	if m.currentTurn != sessionId {
		return outcome, cerr.ErrNotYourTurn()
	}

	defenderId := m.opponentOfLocked(sessionId)
	defender := m.players[defenderId]

	result, sunkShip, err := defender.ReceiveShot(x, y)
	if err != nil {
		return outcome, err
	}

	outcome.Result = result
	outcome.SunkShip = sunkShip
	outcome.DefenderId = defenderId

	if result == ShotResultAlreadyHit {
		return outcome, nil
	}

	if result == ShotResultHit && defender.HasLost() {
		m.phase = PhaseFinished
		m.disarmPlacementTimerLocked()
		outcome.Win = true
		return outcome, nil
	}

	m.currentTurn = defenderId
	outcome.NextTurn = defenderId
	outcome.Views = m.viewsLocked()
	return outcome, nil
}

// Returns the requesting player's view without mutating anything.
// Legal in any phase and never affects the turn.
func (m *Match) BoardView(sessionId uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, prs := m.players[sessionId]
	if !prs {
		return "", cerr.ErrPlayerNotInMatch(sessionId)
	}

	if m.phase == PhaseInProgress {
		return m.viewLocked(sessionId), nil
	}
	return "Your board:\n" + p.Board.Render(true), nil
}

// Forces the match to the finished phase. Reports whether this
// call performed the transition, so quit and disconnect handling
// stays idempotent.
func (m *Match) Finish() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseFinished {
		return false
	}
	m.phase = PhaseFinished
	m.disarmPlacementTimerLocked()
	return true
}

func (m *Match) OtherSessionIds(sessionId uint64) []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	others := make([]uint64, 0, MatchPlayerCap-1)
	for _, id := range m.order {
		if id != sessionId {
			others = append(others, id)
		}
	}
	return others
}

// Arms the one-shot placement deadline. On expiry, if the match
// is still in the placement phase, it is finished and the ids of
// placement-incomplete and placement-complete players are handed
// to onExpire. Disarming through the match lock makes a stale
// fire a no-op.
func (m *Match) ArmPlacementTimer(d time.Duration, onExpire func(timedOut, complete []uint64)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlacement || m.placementTimer != nil {
		return
	}

	m.placementTimer = time.AfterFunc(d, func() {
		m.mu.Lock()
		if m.phase != PhasePlacement {
			m.mu.Unlock()
			return
		}

		var timedOut, complete []uint64
		for _, id := range m.order {
			if m.players[id].IsPlacementComplete() {
				complete = append(complete, id)
			} else {
				timedOut = append(timedOut, id)
			}
		}
		m.phase = PhaseFinished
		m.mu.Unlock()

		onExpire(timedOut, complete)
	})
}

func (m *Match) disarmPlacementTimerLocked() {
	if m.placementTimer != nil {
		m.placementTimer.Stop()
		m.placementTimer = nil
	}
}

func (m *Match) opponentOfLocked(sessionId uint64) uint64 {
	for _, id := range m.order {
		if id != sessionId {
			return id
		}
	}
	return 0
}

func (m *Match) viewsLocked() map[uint64]string {
	views := make(map[uint64]string, len(m.order))
	for _, id := range m.order {
		views[id] = m.viewLocked(id)
	}
	return views
}

// Own board with ships revealed plus the opponent board reduced
// to the hit/miss overlay.
func (m *Match) viewLocked(sessionId uint64) string {
	own := m.players[sessionId]
	opponent := m.players[m.opponentOfLocked(sessionId)]

	return "Your board:\n" + own.Board.Render(true) +
		"Opponent board:\n" + opponent.Board.Render(false)
}
