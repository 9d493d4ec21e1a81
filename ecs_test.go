package cellular

import (
	"reflect"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }

func componentAt[T any](t *testing.T, ecs *Ecs, e EntityId) T {
	t.Helper()
	arch, ok := ecs.entities[e]
	require.True(t, ok, "entity %d is not alive", e)
	data, ok := arch.column(componentIdOf[T](ecs))
	require.True(t, ok, "entity %d has no %T", e, *new(T))
	return data.([]T)[arch.rows[e]]
}

func TestEcs_NewEcs(t *testing.T) {
	ecs := NewEcs()
	assert.Empty(t, ecs.archetypes)
	assert.Zero(t, ecs.entityCount())
	assert.Equal(t, EntityId(0), ecs.nextEntityId())
	assert.Equal(t, EntityId(1), ecs.nextEntityId())
}

func TestEcs_AddEntity(t *testing.T) {
	ecs := NewEcs()
	bare := ecs.addEntity()
	moving := ecs.addEntity(position{1, 2}, &velocity{3, 4})
	still := ecs.addEntity(position{5, 6})

	assert.Equal(t, 3, ecs.entityCount())
	assert.NotSame(t, ecs.entities[bare], ecs.entities[moving])
	assert.NotSame(t, ecs.entities[moving], ecs.entities[still])

	assert.Equal(t, position{1, 2}, componentAt[position](t, ecs, moving))
	assert.Equal(t, velocity{3, 4}, componentAt[velocity](t, ecs, moving), "pointers are stored by value")
	assert.Equal(t, position{5, 6}, componentAt[position](t, ecs, still))
}

func TestEcs_SameComponentsShareArchetype(t *testing.T) {
	ecs := NewEcs()
	a := ecs.addEntity(position{}, velocity{})
	b := ecs.addEntity(&velocity{}, position{})

	assert.Same(t, ecs.entities[a], ecs.entities[b])
	assert.Len(t, ecs.archetypes, 1)
}

func TestEcs_DuplicateComponentLastWins(t *testing.T) {
	ecs := NewEcs()
	e := ecs.addEntity(position{1, 1}, position{2, 2})

	assert.Len(t, ecs.entities[e].key, 1)
	assert.Equal(t, position{2, 2}, componentAt[position](t, ecs, e))
}

func TestEcs_InvalidComponentPanics(t *testing.T) {
	ecs := NewEcs()
	assert.Panics(t, func() { ecs.addEntity(123) })
	assert.Panics(t, func() { ecs.addEntity(nil) })
	assert.Panics(t, func() { ecs.addEntity(new(int)) })
}

func TestEcs_ComponentRegistry(t *testing.T) {
	ecs := NewEcs()
	id1 := ecs.components.id(reflect.TypeOf(position{}))
	id2 := ecs.components.id(reflect.TypeOf(velocity{}))

	assert.Equal(t, id1, componentIdOf[position](ecs))
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, reflect.TypeOf(velocity{}), ecs.components.typeOf(id2))
}

func TestEcs_ComponentRegistryConcurrent(t *testing.T) {
	ecs := NewEcs()
	ids := make([]componentId, 16)

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = componentIdOf[position](ecs)
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, ecs.components.types, 1)
}

func TestEcs_ArchetypeKey(t *testing.T) {
	key := archetypeKey([]componentId{3, 1, 2, 1, 3})
	assert.Equal(t, []componentId{1, 2, 3}, key)
	assert.Equal(t, "1,2,3", keyString(key))
	assert.Equal(t, "", keyString(archetypeKey(nil)))

	in := []componentId{2, 1}
	archetypeKey(in)
	assert.Equal(t, []componentId{2, 1}, in, "input is not reordered")
}

func TestEcs_RemoveEntity(t *testing.T) {
	ecs := NewEcs()
	e := ecs.addEntity(position{1, 2})
	other := ecs.addEntity(position{3, 4})

	assert.True(t, ecs.removeEntity(e))
	assert.NotContains(t, ecs.entities, e)
	assert.Equal(t, position{3, 4}, componentAt[position](t, ecs, other))
}

func TestEcs_RemoveIsGuarded(t *testing.T) {
	ecs := NewEcs()
	e := ecs.addEntity(position{1, 2})
	arch := ecs.entities[e]

	assert.True(t, ecs.removeEntity(e))
	assert.False(t, ecs.removeEntity(e), "second removal is a no-op")
	assert.False(t, ecs.removeEntity(EntityId(999)))

	assert.Zero(t, ecs.entityCount())
	assert.Len(t, arch.free, 1, "the row is freed exactly once")
}

func TestEcs_ReleasedRowsAreZeroedAndReused(t *testing.T) {
	type payload struct{ data []int }

	ecs := NewEcs()
	a := ecs.addEntity(payload{data: []int{1, 2, 3}})
	ecs.addEntity(payload{})
	arch := ecs.entities[a]
	row := arch.rows[a]

	ecs.removeEntity(a)
	col, _ := arch.column(componentIdOf[payload](ecs))
	assert.Nil(t, col.([]payload)[row].data, "a freed row drops its references")

	c := ecs.addEntity(payload{data: []int{9}})
	assert.Equal(t, row, arch.rows[c])
	assert.Equal(t, 2, arch.size)
	col, _ = arch.column(componentIdOf[payload](ecs))
	assert.Len(t, col.([]payload), 2)
	assert.Equal(t, []int{9}, componentAt[payload](t, ecs, c).data)
}

func TestEcs_SortedArchetypesAndEntities(t *testing.T) {
	ecs := NewEcs()
	var want []EntityId
	for i := range 10 {
		want = append(want, ecs.addEntity(position{X: float64(i)}))
	}
	ecs.addEntity(position{}, velocity{})
	ecs.addEntity(velocity{})

	archs := ecs.sortedArchetypes()
	require.Len(t, archs, 3)
	for i := 1; i < len(archs); i++ {
		assert.Negative(t, slices.Compare(archs[i-1].key, archs[i].key))
	}

	// freeing and reusing rows must not change the visiting order
	ecs.removeEntity(want[2])
	ecs.removeEntity(want[7])
	want = append(want[:7], want[8:]...)
	want = append(want[:2], want[3:]...)
	want = append(want, ecs.addEntity(position{}))

	var got []EntityId
	for _, e := range ecs.entities[want[0]].sortedEntities() {
		got = append(got, e.id)
	}
	assert.Equal(t, want, got)
}
