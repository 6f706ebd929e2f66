package battleship

import "strings"

const GridSize = 5

const (
	CellEmpty uint8 = iota
	CellShip
	CellHit
	CellMiss
)

type Coordinates struct {
	X int
	Y int
}

func NewCoordinates(x, y int) Coordinates {
	return Coordinates{X: x, Y: y}
}

type Board [][]uint8

// Creates a new default board.
// All cells start as CellEmpty.
func NewBoard() Board {
	board := make(Board, GridSize)

	for i := 0; i < GridSize; i++ {
		board[i] = make([]uint8, GridSize)
	}
	return board
}

func (b Board) IsInBound(x, y int) bool {
	return x >= 0 && x < GridSize && y >= 0 && y < GridSize
}

// Counts the cells still holding an unhit ship segment.
// Zero remaining ship cells means the owner has lost.
func (b Board) ShipCellsLeft() int {
	var left int
	for _, row := range b {
		for _, cell := range row {
			if cell == CellShip {
				left++
			}
		}
	}
	return left
}

// Renders the board as text rows. With revealShips false only
// hits and misses show, so an opponent view never leaks un-fired
// ship cells.
func (b Board) Render(revealShips bool) string {
	var sb strings.Builder

	for _, row := range b {
		for j, cell := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(cellSymbol(cell, revealShips))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellSymbol(cell uint8, revealShips bool) byte {
	switch cell {
	case CellShip:
		if revealShips {
			return 'S'
		}
		return '.'
	case CellHit:
		return 'X'
	case CellMiss:
		return 'O'
	default:
		return '.'
	}
}
