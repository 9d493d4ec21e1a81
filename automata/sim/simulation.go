// Package sim advances 3D cellular automata one generation at a time.
//
// A cell holds a value and a cached neighbour count. Value 0 is dead, value
// == rule.States is fully alive and anything in between is decaying. The
// neighbour count only includes fully alive neighbours. It is maintained
// incrementally from the spawns and deaths of each generation instead of
// being recounted.
package sim

import (
	"context"

	"github.com/gekko3d/cellular/automata/grid"
	"github.com/gekko3d/cellular/automata/instance"
	"github.com/gekko3d/cellular/automata/rule"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultNoiseRadius = 6
	DefaultNoiseAmount = 12 * 12 * 12
)

type Simulation interface {
	// Update advances every cell by one generation.
	Update(ctx context.Context, r *rule.Rule) error
	// Render appends one instance per non-dead cell to data.
	Render(r *rule.Rule, data []instance.InstanceData) []instance.InstanceData
	Reset()
	SpawnNoise(r *rule.Rule, center grid.Pos, radius, amount int)
	Spawn(r *rule.Rule, p grid.Pos) bool
	Cell(p grid.Pos) (value, neighbours uint8)
	CellCount() int
	// SetBounds resizes the grid to hold at least bounds cells per axis and
	// returns the effective edge length. Resizing clears the grid.
	SetBounds(bounds int) int
	Bounds() int
	Center() grid.Pos
}

type cell struct {
	value      uint8
	neighbours uint8
}

func (c cell) dead() bool { return c.value == 0 }

// step applies the rule to one cell using the neighbour count from the
// previous generation. It reports whether the cell became fully alive or
// stopped being fully alive, the two events that change neighbour counts.
func (c *cell) step(r *rule.Rule) (spawned, died bool) {
	if c.dead() {
		if r.Birth.Contains(c.neighbours) {
			c.value = r.States
			return true, false
		}
		return false, false
	}

	if c.value < r.States || !r.Survival.Contains(c.neighbours) {
		died = c.value == r.States
		c.value--
	}
	return false, died
}

func cellInstance(r *rule.Rule, p grid.Pos, size int, c cell) instance.InstanceData {
	center := grid.Center(size)
	t := p.Sub(center)
	colour := r.ColourOf(c.value, c.neighbours, grid.DistanceToCenter(p, size))
	return instance.NewInstanceData(mgl32.Vec3{float32(t.X), float32(t.Y), float32(t.Z)}, 1, colour)
}

func spawnNoise(s Simulation, rng randSource, r *rule.Rule, center grid.Pos, radius, amount int) {
	if radius < 0 {
		radius = 0
	}
	span := 2*radius + 1
	for i := 0; i < amount; i++ {
		s.Spawn(r, center.Add(grid.P(
			rng.Intn(span)-radius,
			rng.Intn(span)-radius,
			rng.Intn(span)-radius,
		)))
	}
}

type randSource interface {
	Intn(n int) int
}
