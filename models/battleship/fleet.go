package battleship

import (
	"fmt"
	"sort"
	"strings"

	cerr "github.com/navalclash/battleship-server/internal/error"
)

const (
	ShipNameMothership = "Mothership"
	ShipNameDestroyer  = "Destroyer"
	ShipNameSubmarine  = "Submarine"
)

const (
	OrientationHorizontal uint8 = iota
	OrientationVertical
)

// Horizontal extends along y, vertical along x.
func ParseOrientation(raw string) (uint8, error) {
	switch raw {
	case "H":
		return OrientationHorizontal, nil
	case "V":
		return OrientationVertical, nil
	default:
		return 0, cerr.ErrInvalidOrientation(raw)
	}
}

type ShipSpec struct {
	Count int
	Size  int
}

// Fleet is the fixed set of ship types available to each player.
// Immutable for the process lifetime.
type Fleet map[string]ShipSpec

func NewDefaultFleet() Fleet {
	return Fleet{
		ShipNameMothership: {Count: 1, Size: 4},
		ShipNameDestroyer:  {Count: 1, Size: 3},
		ShipNameSubmarine:  {Count: 1, Size: 2},
	}
}

func (f Fleet) TotalShipCells() int {
	var total int
	for _, spec := range f {
		total += spec.Count * spec.Size
	}
	return total
}

func (f Fleet) shipNamesSorted() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Human readable listing for the placement-phase-start notice.
func (f Fleet) Describe() string {
	var sb strings.Builder
	for _, name := range f.shipNamesSorted() {
		spec := f[name]
		fmt.Fprintf(&sb, "%s: %d x size %d\n", name, spec.Count, spec.Size)
	}
	return sb.String()
}
