package error

import "fmt"

func ErrShortFrame(declared, got int) error {
	return fmt.Errorf("connection closed before declared frame length was satisfied\tdeclared: %d\tgot: %d", declared, got)
}

func ErrUnknownShip(name string) error {
	return fmt.Errorf("no ship with this name in the fleet:\t%s", name)
}

func ErrShipAlreadyPlaced(name string) error {
	return fmt.Errorf("all copies of this ship are already placed:\t%s", name)
}

func ErrPlacementFinalized() error {
	return fmt.Errorf("ship placement is already finalized for this player")
}

func ErrInvalidOrientation(raw string) error {
	return fmt.Errorf("orientation must be H or V, got:\t%s", raw)
}

func ErrPlacementOutOfBound(x, y, size int) error {
	return fmt.Errorf("ship runs off the board edge\tx: %d\ty: %d\tsize: %d", x, y, size)
}

func ErrPlacementOverlap(x, y int) error {
	return fmt.Errorf("target cell is not empty\tx: %d\ty: %d", x, y)
}

func ErrXorYOutOfGridBound(x, y int) error {
	return fmt.Errorf("incoming x or y is out of game grid bound\tx: %d\ty: %d", x, y)
}

func ErrNotYourTurn() error {
	return fmt.Errorf("it is not your turn to fire")
}

func ErrWrongPhase(op string) error {
	return fmt.Errorf("operation not allowed in the current match phase:\t%s", op)
}

func ErrMatchNotExists(matchUuid string) error {
	return fmt.Errorf("match with this uuid does not exist, uuid: %s", matchUuid)
}

func ErrServerFull() error {
	return fmt.Errorf("server already hosts a full match, only two players are supported")
}

func ErrSessionClosed(sessionId uint64) error {
	return fmt.Errorf("session is already closed, id: %d", sessionId)
}

func ErrSessionNotFound(sessionId uint64) error {
	return fmt.Errorf("no session with this id, id: %d", sessionId)
}

func ErrPlayerNotInMatch(sessionId uint64) error {
	return fmt.Errorf("session is not part of this match, id: %d", sessionId)
}
