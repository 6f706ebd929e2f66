package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/navalclash/battleship-server/db/sqlc"
	mb "github.com/navalclash/battleship-server/models/battleship"
	mc "github.com/navalclash/battleship-server/models/connection"
)

// RequestProcessor drives one connected client from registration
// to eviction: welcome, match assignment, the per-session read
// loop and every notification pushed back out. One goroutine per
// session; all match state changes go through the match's own
// lock.
type RequestProcessor struct {
	sessionManager   *mc.SessionManager
	matchManager     *mb.MatchManager
	analytics        *sqlc.AnalyticsManager
	placementTimeout time.Duration
	ipnet            net.IPNet
}

func NewRequestProcessor(
	sessionManager *mc.SessionManager,
	matchManager *mb.MatchManager,
	analytics *sqlc.AnalyticsManager,
	placementTimeout time.Duration,
) *RequestProcessor {
	rp := &RequestProcessor{
		sessionManager:   sessionManager,
		matchManager:     matchManager,
		analytics:        analytics,
		placementTimeout: placementTimeout,
	}

	if analytics != nil {
		rp.ipnet = mustGetServerIpNet()
	}
	return rp
}

func mustGetServerIpNet() net.IPNet {
	ifaces, err := net.Interfaces()
	if err != nil {
		panic(err)
	}

	for _, iface := range ifaces {
		// If the flag is down
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			panic(err)
		}

		for _, addr := range addrs {
			var ipnet *net.IPNet
			var ip net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ipnet = v
				ip = v.IP

			case *net.IPAddr:
				ip = v.IP
			}

			if ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				return *ipnet
			}
		}
	}

	panic("ipnet could not be found!")
}

// HandleTransport owns a freshly accepted connection for its
// whole lifetime. Runs on its own goroutine.
func (rp *RequestProcessor) HandleTransport(t mc.Transport) {
	session := rp.sessionManager.Register(t)

	welcome := fmt.Sprintf("Welcome to Battleship! You are client %d.", session.Id())
	if err := session.Deliver(mc.FlagInfo, mc.CommandDefault, welcome); err != nil {
		rp.sessionManager.Unregister(session.Id())
		return
	}

	match, created, started, err := rp.matchManager.AssignSession(session.Id())
	if err != nil {
		// Only two-player matches are supported; extra
		// connections are rejected, not queued.
		_ = session.Deliver(mc.FlagInvalidRequest, mc.CommandDisconnect, "server is full, try again later")
		rp.sessionManager.Unregister(session.Id())
		return
	}

	if created {
		rp.countMatchCreated()
	}
	if started {
		rp.startPlacementPhase(match)
	}

	rp.sessionLoop(session, match)
}

func (rp *RequestProcessor) sessionLoop(session *mc.Session, match *mb.Match) {
	defer rp.dropSession(session, match)

sessionLoop:
	for {
		msg, err := session.Read()
		if err != nil {
			if errors.Is(err, mc.ErrMalformed) {
				// Chosen policy: drop the message, keep the
				// connection open.
				rp.deliver(session.Id(), mc.FlagInvalidRequest, mc.CommandDefault, err.Error())
				continue sessionLoop
			}
			break sessionLoop
		}

		switch msg.Command {
		case mc.CommandClientPlacement:
			rp.handlePlacement(session.Id(), match, msg.Payload)

		case mc.CommandClientShot:
			rp.handleShot(session.Id(), match, msg.Payload)

		case mc.CommandSeeBoard:
			view, err := match.BoardView(session.Id())
			if err != nil {
				rp.deliver(session.Id(), mc.FlagInvalidRequest, mc.CommandDefault, err.Error())
				continue sessionLoop
			}
			rp.deliver(session.Id(), mc.FlagInfo, mc.CommandSeeBoard, view)

		case mc.CommandQuit:
			rp.deliver(session.Id(), mc.FlagInfo, mc.CommandDisconnect, "you left the match")
			break sessionLoop

		default:
			rp.deliver(session.Id(), mc.FlagInvalidRequest, mc.CommandDefault, "unknown command: "+msg.Command)
		}
	}
}

// A session leaving for any reason (quit, transport error, peer
// close) ends the match for both parties. Idempotent with the
// win, timeout and rejection paths through Match.Finish and the
// session manager.
func (rp *RequestProcessor) dropSession(session *mc.Session, match *mb.Match) {
	if match.Finish() {
		for _, otherId := range match.OtherSessionIds(session.Id()) {
			rp.deliver(otherId, mc.FlagError, mc.CommandDisconnect, "opponent left the match, game over")
			rp.sessionManager.Unregister(otherId)
		}
	}

	rp.matchManager.TerminateMatch(match.Uuid())
	rp.sessionManager.Unregister(session.Id())
	log.Printf("client %d has disconnected, %d session(s) remain", session.Id(), rp.sessionManager.ActiveCount())
}

func (rp *RequestProcessor) startPlacementPhase(match *mb.Match) {
	notice := fmt.Sprintf(
		"Both players connected. Place your ships within %d seconds.\n"+
			"Ships are placed with %s:<ShipName>:<xy>:<H|V>, horizontally (H) or vertically (V).\n"+
			"Fleet:\n%s",
		int(rp.placementTimeout/time.Second),
		mc.CommandClientPlacement,
		match.Fleet().Describe(),
	)

	for _, id := range match.SessionIds() {
		view, err := match.BoardView(id)
		if err != nil {
			continue
		}
		rp.deliver(id, mc.FlagInfo, mc.CommandShipPlacementStart, notice+view)
	}

	match.ArmPlacementTimer(rp.placementTimeout, func(timedOut, complete []uint64) {
		rp.onPlacementTimeout(match, timedOut, complete)
	})
}

// Invalid placements are rejected without resetting the deadline.
func (rp *RequestProcessor) handlePlacement(sessionId uint64, match *mb.Match, payload string) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) < 3 {
		rp.deliver(sessionId, mc.FlagInvalidRequest, mc.CommandDefault, "placement payload must be <ShipName>:<xy>:<H|V>")
		return
	}

	x, y, err := parseCoords(parts[1])
	if err != nil {
		rp.deliver(sessionId, mc.FlagInvalidRequest, mc.CommandDefault, err.Error())
		return
	}
	orientation, err := mb.ParseOrientation(parts[2])
	if err != nil {
		rp.deliver(sessionId, mc.FlagInvalidRequest, mc.CommandDefault, err.Error())
		return
	}

	outcome, err := match.PlaceShip(sessionId, parts[0], x, y, orientation)
	if err != nil {
		rp.deliver(sessionId, mc.FlagInvalidRequest, mc.CommandDefault, err.Error())
		return
	}

	rp.deliver(sessionId, mc.FlagInfo, mc.CommandDefault,
		fmt.Sprintf("%s placed.\nYour board:\n%sShips left to place:\n%s", parts[0], outcome.BoardView, outcome.RemainingFleet))

	if !outcome.MatchReady {
		return
	}

	for id, view := range outcome.Views {
		rp.deliver(id, mc.FlagInfo, mc.CommandShipPlacementEnd, "All ships placed. The battle begins.\n"+view)

		if id == outcome.FirstTurn {
			rp.deliver(id, mc.FlagInfo, mc.CommandYourTurn,
				fmt.Sprintf("Your turn. Fire with %s:<xy>.", mc.CommandClientShot))
		} else {
			rp.deliver(id, mc.FlagInfo, mc.CommandTurn, "Opponent fires first. Hold.")
		}
	}
}

func (rp *RequestProcessor) handleShot(sessionId uint64, match *mb.Match, payload string) {
	x, y, err := parseCoords(payload)
	if err != nil {
		rp.deliver(sessionId, mc.FlagInvalidRequest, mc.CommandDefault, err.Error())
		return
	}

	outcome, err := match.Shoot(sessionId, x, y)
	if err != nil {
		rp.deliver(sessionId, mc.FlagInvalidRequest, mc.CommandDefault, err.Error())
		return
	}

	rp.countShotFired()

	switch outcome.Result {
	case mb.ShotResultAlreadyHit:
		rp.deliver(sessionId, mc.FlagInfo, mc.CommandDefault,
			fmt.Sprintf("(%d,%d) was already hit, still your turn.", x, y))
		return

	case mb.ShotResultHit:
		hitNote := fmt.Sprintf("Torpedo hit at (%d,%d)!", x, y)
		defenderNote := fmt.Sprintf("Your ship was hit at (%d,%d)!", x, y)
		if outcome.SunkShip != "" {
			hitNote += fmt.Sprintf(" You sank the opponent's %s!", outcome.SunkShip)
			defenderNote += fmt.Sprintf(" Your %s was sunk!", outcome.SunkShip)
		}
		rp.deliver(sessionId, mc.FlagInfo, mc.CommandDefault, hitNote)
		rp.deliver(outcome.DefenderId, mc.FlagInfo, mc.CommandDefault, defenderNote)

	case mb.ShotResultMiss:
		rp.deliver(sessionId, mc.FlagInfo, mc.CommandDefault,
			fmt.Sprintf("Torpedo missed at (%d,%d).", x, y))
		rp.deliver(outcome.DefenderId, mc.FlagInfo, mc.CommandDefault,
			fmt.Sprintf("Opponent fired at (%d,%d) and missed.", x, y))
	}

	if outcome.Win {
		rp.finishWonMatch(match, sessionId, outcome.DefenderId)
		return
	}

	for _, id := range []uint64{sessionId, outcome.DefenderId} {
		view := outcome.Views[id]
		if id == outcome.NextTurn {
			rp.deliver(id, mc.FlagInfo, mc.CommandYourTurn, view+"Your turn. Fire!")
		} else {
			rp.deliver(id, mc.FlagInfo, mc.CommandTurn, view+"Opponent's turn. Hold.")
		}
	}
}

// Win detection already moved the match to its finished phase
// under the match lock; here only the notifications and teardown
// remain.
func (rp *RequestProcessor) finishWonMatch(match *mb.Match, winnerId, loserId uint64) {
	rp.deliver(winnerId, mc.FlagInfo, mc.CommandDefault, "All enemy ships sunk. You win!")
	rp.deliver(loserId, mc.FlagInfo, mc.CommandDefault, "All your ships are sunk. You lose!")

	rp.deliver(winnerId, mc.FlagInfo, mc.CommandDisconnect, "match over")
	rp.deliver(loserId, mc.FlagInfo, mc.CommandDisconnect, "match over")

	rp.sessionManager.Unregister(loserId)
	rp.sessionManager.Unregister(winnerId)
	rp.matchManager.TerminateMatch(match.Uuid())
}

func (rp *RequestProcessor) onPlacementTimeout(match *mb.Match, timedOut, complete []uint64) {
	rp.countTimeoutEviction()

	for _, id := range timedOut {
		rp.deliver(id, mc.FlagError, mc.CommandDisconnect, "ship placement timed out, you are being disconnected")
		rp.sessionManager.Unregister(id)
	}
	for _, id := range complete {
		rp.deliver(id, mc.FlagError, mc.CommandDisconnect, "opponent failed to place ships in time, match ended")
		rp.sessionManager.Unregister(id)
	}

	rp.matchManager.TerminateMatch(match.Uuid())
}

// Push-only write. A failed delivery surfaces as a read error in
// the receiver's own session loop, which runs the disconnect
// path, so here it is only logged.
func (rp *RequestProcessor) deliver(sessionId uint64, flag, command, payload string) {
	if err := rp.sessionManager.Deliver(sessionId, flag, command, payload); err != nil {
		log.Printf("failed to deliver %s:%s to session %d: %v", flag, command, sessionId, err)
	}
}

// Coordinates arrive as exactly two digits, x then y.
func parseCoords(raw string) (int, int, error) {
	if len(raw) != 2 || raw[0] < '0' || raw[0] > '9' || raw[1] < '0' || raw[1] > '9' {
		return 0, 0, fmt.Errorf("coordinates must be two digits, got: %q", raw)
	}
	return int(raw[0] - '0'), int(raw[1] - '0'), nil
}

func (rp *RequestProcessor) countMatchCreated() {
	if rp.analytics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := rp.analytics.IncrementMatchesCreatedCount(ctx, pqtype.Inet{IPNet: rp.ipnet, Valid: true}); err != nil {
		// for now not killing the game for it
		log.Println(err)
	}
}

func (rp *RequestProcessor) countShotFired() {
	if rp.analytics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := rp.analytics.IncrementShotsFiredCount(ctx, pqtype.Inet{IPNet: rp.ipnet, Valid: true}); err != nil {
		log.Println(err)
	}
}

func (rp *RequestProcessor) countTimeoutEviction() {
	if rp.analytics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := rp.analytics.IncrementTimeoutEvictionsCount(ctx, pqtype.Inet{IPNet: rp.ipnet, Valid: true}); err != nil {
		log.Println(err)
	}
}
