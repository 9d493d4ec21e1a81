package rule

import (
	"fmt"
	"strings"

	"github.com/gekko3d/cellular/automata/grid"
)

type NeighbourMethod int

const (
	Moore NeighbourMethod = iota
	VonNeumann
)

var mooreOffsets = func() []grid.Pos {
	res := make([]grid.Pos, 0, 26)
	for z := -1; z <= 1; z++ {
		for y := -1; y <= 1; y++ {
			for x := -1; x <= 1; x++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				res = append(res, grid.P(x, y, z))
			}
		}
	}
	return res
}()

var vonNeumannOffsets = []grid.Pos{
	grid.P(1, 0, 0),
	grid.P(-1, 0, 0),
	grid.P(0, 1, 0),
	grid.P(0, -1, 0),
	grid.P(0, 0, -1),
	grid.P(0, 0, 1),
}

// Offsets returns the shared offset table. Callers must not modify it.
func (m NeighbourMethod) Offsets() []grid.Pos {
	if m == VonNeumann {
		return vonNeumannOffsets
	}
	return mooreOffsets
}

func (m NeighbourMethod) String() string {
	if m == VonNeumann {
		return "VN"
	}
	return "M"
}

func ParseNeighbourMethod(s string) (NeighbourMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "moore":
		return Moore, nil
	case "vn", "n", "vonneumann", "von_neumann", "von-neumann":
		return VonNeumann, nil
	}
	return Moore, fmt.Errorf("%w: unknown neighbourhood %q", ErrInvalidNotation, s)
}
