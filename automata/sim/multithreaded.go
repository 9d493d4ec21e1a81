package sim

import (
	"context"
	"math/rand"
	"runtime"

	"github.com/gekko3d/cellular/automata/grid"
	"github.com/gekko3d/cellular/automata/instance"
	"github.com/gekko3d/cellular/automata/rule"
	"golang.org/x/sync/errgroup"
)

type chunk struct {
	cells []cell
}

func newChunk() chunk {
	return chunk{cells: make([]cell, grid.ChunkCellCount)}
}

// chunkChanges collects the spawns and deaths of one chunk during a
// generation. Interior changes are chunk offsets; border changes are global
// indices because their neighbours may live in other chunks.
type chunkChanges struct {
	spawns, deaths             []int
	borderSpawns, borderDeaths []int
}

func (c *chunkChanges) reset() {
	c.spawns = c.spawns[:0]
	c.deaths = c.deaths[:0]
	c.borderSpawns = c.borderSpawns[:0]
	c.borderDeaths = c.borderDeaths[:0]
}

// MultiThreaded stores the grid as 32³ chunks and updates chunks in
// parallel. A generation runs in three phases:
//  1. every chunk evaluates the rule for its cells (parallel)
//  2. every chunk applies the neighbour changes of its interior cells,
//     which never leave the chunk (parallel)
//  3. neighbour changes of chunk border cells are applied with wrapping
//     (serial)
type MultiThreaded struct {
	chunks  []chunk
	changes []chunkChanges
	layout  grid.Chunked
	workers int
	rng     *rand.Rand
}

// NewMultiThreaded creates an empty engine. workers <= 0 uses GOMAXPROCS.
func NewMultiThreaded(workers int, seed int64) *MultiThreaded {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &MultiThreaded{
		workers: workers,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (m *MultiThreaded) Workers() int { return m.workers }

func (m *MultiThreaded) SetBounds(bounds int) int {
	radius := grid.ChunkRadius(bounds)
	if radius != m.layout.Radius {
		m.layout.Radius = radius
		m.chunks = make([]chunk, m.layout.ChunkCount())
		for i := range m.chunks {
			m.chunks[i] = newChunk()
		}
		m.changes = make([]chunkChanges, len(m.chunks))
	}
	return m.layout.Size()
}

func (m *MultiThreaded) Bounds() int      { return m.layout.Size() }
func (m *MultiThreaded) Center() grid.Pos { return grid.Center(m.layout.Size()) }

func (m *MultiThreaded) Reset() {
	for i := range m.chunks {
		clear(m.chunks[i].cells)
	}
}

func (m *MultiThreaded) CellCount() int {
	count := 0
	for _, ch := range m.chunks {
		for _, c := range ch.cells {
			if !c.dead() {
				count++
			}
		}
	}
	return count
}

func (m *MultiThreaded) at(index int) *cell {
	return &m.chunks[grid.ChunkIndex(index)].cells[grid.ChunkOffset(index)]
}

func (m *MultiThreaded) Cell(p grid.Pos) (uint8, uint8) {
	size := m.layout.Size()
	if size == 0 {
		return 0, 0
	}
	c := m.at(m.layout.PosToIndex(grid.Wrap(p, size)))
	return c.value, c.neighbours
}

func (m *MultiThreaded) Spawn(r *rule.Rule, p grid.Pos) bool {
	size := m.layout.Size()
	if size == 0 {
		return false
	}
	index := m.layout.PosToIndex(grid.Wrap(p, size))
	c := m.at(index)
	if !c.dead() {
		return false
	}
	c.value = r.States
	m.adjustNeighbours(index, r.Neighbours.Offsets(), true)
	return true
}

func (m *MultiThreaded) SpawnNoise(r *rule.Rule, center grid.Pos, radius, amount int) {
	spawnNoise(m, m.rng, r, center, radius, amount)
}

// adjustNeighbours increments or decrements the neighbour count of every
// neighbour of the cell at a global index, wrapping at the grid edge.
func (m *MultiThreaded) adjustNeighbours(index int, offsets []grid.Pos, increment bool) {
	size := m.layout.Size()
	p := m.layout.IndexToPos(index)
	for _, o := range offsets {
		n := m.at(m.layout.PosToIndex(grid.Wrap(p.Add(o), size)))
		if increment {
			n.neighbours++
		} else {
			n.neighbours--
		}
	}
}

func (m *MultiThreaded) updateValues(i int, r *rule.Rule) {
	changes := &m.changes[i]
	changes.reset()

	base := i * grid.ChunkCellCount
	cells := m.chunks[i].cells
	for offset := range cells {
		spawned, died := cells[offset].step(r)
		if !spawned && !died {
			continue
		}
		border := grid.IsBorder(grid.OffsetToPos(offset))
		switch {
		case spawned && border:
			changes.borderSpawns = append(changes.borderSpawns, base+offset)
		case spawned:
			changes.spawns = append(changes.spawns, offset)
		case border:
			changes.borderDeaths = append(changes.borderDeaths, base+offset)
		default:
			changes.deaths = append(changes.deaths, offset)
		}
	}
}

func (m *MultiThreaded) updateInterior(i int, offsets []grid.Pos) {
	changes := &m.changes[i]
	cells := m.chunks[i].cells
	for _, offset := range changes.spawns {
		p := grid.OffsetToPos(offset)
		for _, o := range offsets {
			cells[grid.PosToOffset(p.Add(o))].neighbours++
		}
	}
	for _, offset := range changes.deaths {
		p := grid.OffsetToPos(offset)
		for _, o := range offsets {
			cells[grid.PosToOffset(p.Add(o))].neighbours--
		}
	}
}

func (m *MultiThreaded) forEachChunk(ctx context.Context, fn func(i int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range m.chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}

// Update advances one generation. If ctx is cancelled part way the grid is
// left partially updated and ctx.Err() is returned; callers should Reset.
func (m *MultiThreaded) Update(ctx context.Context, r *rule.Rule) error {
	m.SetBounds(r.Bounds)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.forEachChunk(ctx, func(i int) { m.updateValues(i, r) }); err != nil {
		return err
	}

	offsets := r.Neighbours.Offsets()
	if err := m.forEachChunk(ctx, func(i int) { m.updateInterior(i, offsets) }); err != nil {
		return err
	}

	for i := range m.changes {
		for _, index := range m.changes[i].borderSpawns {
			m.adjustNeighbours(index, offsets, true)
		}
		for _, index := range m.changes[i].borderDeaths {
			m.adjustNeighbours(index, offsets, false)
		}
	}
	return nil
}

func (m *MultiThreaded) Render(r *rule.Rule, data []instance.InstanceData) []instance.InstanceData {
	size := m.layout.Size()
	for i, ch := range m.chunks {
		base := i * grid.ChunkCellCount
		for offset, c := range ch.cells {
			if c.dead() {
				continue
			}
			data = append(data, cellInstance(r, m.layout.IndexToPos(base+offset), size, c))
		}
	}
	return data
}
