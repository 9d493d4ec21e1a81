package sim

import (
	"context"
	"math/rand"

	"github.com/gekko3d/cellular/automata/grid"
	"github.com/gekko3d/cellular/automata/instance"
	"github.com/gekko3d/cellular/automata/rule"
)

// SingleThreaded keeps the whole grid in one flat slice whose edge length is
// exactly the requested bounds. It is the straightforward version of the
// update and the reference the chunked engine is checked against.
type SingleThreaded struct {
	cells  []cell
	size   int
	rng    *rand.Rand
	spawns []int
	deaths []int
}

func NewSingleThreaded(seed int64) *SingleThreaded {
	return &SingleThreaded{rng: rand.New(rand.NewSource(seed))}
}

func (s *SingleThreaded) SetBounds(bounds int) int {
	if bounds < 0 {
		bounds = 0
	}
	if bounds != s.size {
		s.size = bounds
		s.cells = make([]cell, bounds*bounds*bounds)
	}
	return s.size
}

func (s *SingleThreaded) Bounds() int      { return s.size }
func (s *SingleThreaded) Center() grid.Pos { return grid.Center(s.size) }
func (s *SingleThreaded) Reset()           { clear(s.cells) }

func (s *SingleThreaded) CellCount() int {
	count := 0
	for _, c := range s.cells {
		if !c.dead() {
			count++
		}
	}
	return count
}

func (s *SingleThreaded) Cell(p grid.Pos) (uint8, uint8) {
	if s.size == 0 {
		return 0, 0
	}
	c := s.cells[grid.PosToIndex(grid.Wrap(p, s.size), s.size)]
	return c.value, c.neighbours
}

func (s *SingleThreaded) Spawn(r *rule.Rule, p grid.Pos) bool {
	if s.size == 0 {
		return false
	}
	index := grid.PosToIndex(grid.Wrap(p, s.size), s.size)
	if !s.cells[index].dead() {
		return false
	}
	s.cells[index].value = r.States
	s.adjustNeighbours(index, r.Neighbours.Offsets(), true)
	return true
}

func (s *SingleThreaded) SpawnNoise(r *rule.Rule, center grid.Pos, radius, amount int) {
	spawnNoise(s, s.rng, r, center, radius, amount)
}

func (s *SingleThreaded) adjustNeighbours(index int, offsets []grid.Pos, increment bool) {
	p := grid.IndexToPos(index, s.size)
	for _, o := range offsets {
		n := &s.cells[grid.PosToIndex(grid.Wrap(p.Add(o), s.size), s.size)]
		if increment {
			n.neighbours++
		} else {
			n.neighbours--
		}
	}
}

func (s *SingleThreaded) Update(ctx context.Context, r *rule.Rule) error {
	s.SetBounds(r.Bounds)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.spawns = s.spawns[:0]
	s.deaths = s.deaths[:0]
	for i := range s.cells {
		spawned, died := s.cells[i].step(r)
		if spawned {
			s.spawns = append(s.spawns, i)
		} else if died {
			s.deaths = append(s.deaths, i)
		}
	}

	offsets := r.Neighbours.Offsets()
	for _, i := range s.spawns {
		s.adjustNeighbours(i, offsets, true)
	}
	for _, i := range s.deaths {
		s.adjustNeighbours(i, offsets, false)
	}
	return nil
}

func (s *SingleThreaded) Render(r *rule.Rule, data []instance.InstanceData) []instance.InstanceData {
	for i, c := range s.cells {
		if c.dead() {
			continue
		}
		data = append(data, cellInstance(r, grid.IndexToPos(i, s.size), s.size, c))
	}
	return data
}
