// Package grid holds the integer addressing used by the simulations: cell
// positions, toroidal wrapping and the chunked index layout.
package grid

import (
	"fmt"
	"math"
)

// Pos is an integer cell coordinate.
type Pos struct {
	X, Y, Z int
}

func P(x, y, z int) Pos { return Pos{X: x, Y: y, Z: z} }

func (p Pos) Add(o Pos) Pos { return Pos{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }
func (p Pos) Sub(o Pos) Pos { return Pos{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }

func wrap1(v, size int) int {
	return (v%size + size) % size
}

// Wrap folds p back into [0,size)³. Negative coordinates wrap to the far side.
func Wrap(p Pos, size int) Pos {
	return Pos{wrap1(p.X, size), wrap1(p.Y, size), wrap1(p.Z, size)}
}

// IndexToPos converts a linear index into a position in a cube of the given
// edge length. X varies fastest.
func IndexToPos(index, size int) Pos {
	return Pos{
		X: index % size,
		Y: index / size % size,
		Z: index / size / size,
	}
}

// PosToIndex is the inverse of IndexToPos. p must be inside the cube.
func PosToIndex(p Pos, size int) int {
	return p.X + p.Y*size + p.Z*size*size
}

func Center(size int) Pos {
	c := size / 2
	return Pos{c, c, c}
}

// DistanceToCenter is the euclidean distance from p to Center(size),
// normalised so that half the edge length maps to 1.
func DistanceToCenter(p Pos, size int) float32 {
	d := p.Sub(Center(size))
	half := float64(size) / 2
	if half == 0 {
		return 0
	}
	l := math.Sqrt(float64(d.X*d.X + d.Y*d.Y + d.Z*d.Z))
	return float32(l / half)
}
