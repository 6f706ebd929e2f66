package battleship

import (
	"fmt"
	"strings"

	cerr "github.com/navalclash/battleship-server/internal/error"
)

const (
	ShotResultMiss uint8 = iota
	ShotResultHit
	ShotResultAlreadyHit
)

// A ship committed to the board. Tracks its cells so a hit can
// be attributed back to the ship and sinking detected.
type placedShip struct {
	name  string
	cells []Coordinates
	hits  int
}

func (ps *placedShip) isSunk() bool {
	return ps.hits == len(ps.cells)
}

func (ps *placedShip) covers(x, y int) bool {
	for _, c := range ps.cells {
		if c.X == x && c.Y == y {
			return true
		}
	}
	return false
}

type Player struct {
	SessionId uint64
	Board     Board

	fleet       Fleet
	placedCount map[string]int
	placed      []*placedShip

	// Ordered logs of opponent shots at this player.
	hitLog  []Coordinates
	missLog []Coordinates
}

func NewPlayer(sessionId uint64, fleet Fleet) *Player {
	return &Player{
		SessionId:   sessionId,
		Board:       NewBoard(),
		fleet:       fleet,
		placedCount: make(map[string]int, len(fleet)),
		placed:      make([]*placedShip, 0, len(fleet)),
	}
}

func (p *Player) IsPlacementComplete() bool {
	for name, spec := range p.fleet {
		if p.placedCount[name] < spec.Count {
			return false
		}
	}
	return true
}

// Validates then commits a single ship placement. Rejection order:
// unknown ship, all copies placed, placement finalized, off-board,
// overlapping a non-empty cell. Validate and commit are not atomic;
// the owning match serializes placement attempts per player.
func (p *Player) PlaceShip(shipName string, x, y int, orientation uint8) error {
	spec, prs := p.fleet[shipName]
	if !prs {
		return cerr.ErrUnknownShip(shipName)
	}
	if p.placedCount[shipName] >= spec.Count {
		return cerr.ErrShipAlreadyPlaced(shipName)
	}
	if p.IsPlacementComplete() {
		return cerr.ErrPlacementFinalized()
	}

	cells, err := placementCells(x, y, spec.Size, orientation)
	if err != nil {
		return err
	}
	for _, c := range cells {
		if p.Board[c.X][c.Y] != CellEmpty {
			return cerr.ErrPlacementOverlap(c.X, c.Y)
		}
	}

	for _, c := range cells {
		p.Board[c.X][c.Y] = CellShip
	}
	p.placedCount[shipName]++
	p.placed = append(p.placed, &placedShip{name: shipName, cells: cells})
	return nil
}

func placementCells(x, y, size int, orientation uint8) ([]Coordinates, error) {
	if x < 0 || y < 0 {
		return nil, cerr.ErrPlacementOutOfBound(x, y, size)
	}

	cells := make([]Coordinates, 0, size)
	switch orientation {
	case OrientationHorizontal:
		if x >= GridSize || y+size > GridSize {
			return nil, cerr.ErrPlacementOutOfBound(x, y, size)
		}
		for i := 0; i < size; i++ {
			cells = append(cells, NewCoordinates(x, y+i))
		}

	case OrientationVertical:
		if y >= GridSize || x+size > GridSize {
			return nil, cerr.ErrPlacementOutOfBound(x, y, size)
		}
		for i := 0; i < size; i++ {
			cells = append(cells, NewCoordinates(x+i, y))
		}

	default:
		return nil, cerr.ErrInvalidOrientation(fmt.Sprintf("%d", orientation))
	}

	return cells, nil
}

// Applies an opponent shot to this player's board. A cell that is
// already CellHit reports ShotResultAlreadyHit and mutates nothing.
// Returns the name of the ship the hit sank, if any.
func (p *Player) ReceiveShot(x, y int) (uint8, string, error) {
	if !p.Board.IsInBound(x, y) {
		return 0, "", cerr.ErrXorYOutOfGridBound(x, y)
	}

	switch p.Board[x][y] {
	case CellHit:
		return ShotResultAlreadyHit, "", nil

	case CellShip:
		p.Board[x][y] = CellHit
		p.hitLog = append(p.hitLog, NewCoordinates(x, y))

		for _, ps := range p.placed {
			if ps.covers(x, y) {
				ps.hits++
				if ps.isSunk() {
					return ShotResultHit, ps.name, nil
				}
				break
			}
		}
		return ShotResultHit, "", nil

	default:
		// Empty and miss cells both resolve to a miss.
		p.Board[x][y] = CellMiss
		p.missLog = append(p.missLog, NewCoordinates(x, y))
		return ShotResultMiss, "", nil
	}
}

func (p *Player) HasLost() bool {
	return p.Board.ShipCellsLeft() == 0
}

func (p *Player) HitLog() []Coordinates {
	return p.hitLog
}

func (p *Player) MissLog() []Coordinates {
	return p.missLog
}

// Lists the ships the player still has to place.
func (p *Player) RemainingFleet() string {
	var sb strings.Builder
	for _, name := range p.fleet.shipNamesSorted() {
		spec := p.fleet[name]
		left := spec.Count - p.placedCount[name]
		if left > 0 {
			fmt.Fprintf(&sb, "%s: %d x size %d\n", name, left, spec.Size)
		}
	}
	if sb.Len() == 0 {
		return "all ships placed\n"
	}
	return sb.String()
}
