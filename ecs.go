package cellular

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

type EntityId uint64
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

// Ecs stores entities grouped by their exact set of component types. Each
// group is an archetype with one typed column per component.
type Ecs struct {
	archetypes map[string]*archetype
	entities   map[EntityId]*archetype
	nextId     atomic.Uint64
	components componentRegistry
}

func NewEcs() *Ecs {
	return &Ecs{
		archetypes: make(map[string]*archetype),
		entities:   make(map[EntityId]*archetype),
		components: componentRegistry{ids: make(map[reflect.Type]componentId)},
	}
}

// componentRegistry hands out dense ids to component types. Systems may
// build queries concurrently, so lookups are locked.
type componentRegistry struct {
	mu    sync.Mutex
	ids   map[reflect.Type]componentId
	types []reflect.Type
}

func (r *componentRegistry) id(t reflect.Type) componentId {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[t]; ok {
		return id
	}
	id := componentId(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	return id
}

func (r *componentRegistry) typeOf(id componentId) reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.types[id]
}

// componentType accepts a struct or a pointer to one.
func componentType(c any) reflect.Type {
	t := reflect.TypeOf(c)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("component must be a struct or a pointer to a struct, got %T", c))
	}
	return t
}

func componentValue(c any) reflect.Value {
	v := reflect.ValueOf(c)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v
}

type archetype struct {
	key     []componentId // sorted, no duplicates
	columns map[componentId]reflect.Value
	rows    map[EntityId]row
	free    []row
	size    int // rows allocated in every column
}

// reserve returns a zeroed row, reusing a freed one when possible.
func (a *archetype) reserve() row {
	if n := len(a.free); n > 0 {
		r := a.free[n-1]
		a.free = a.free[:n-1]
		return r
	}

	r := row(a.size)
	a.size++
	for id, col := range a.columns {
		a.columns[id] = reflect.Append(col, reflect.Zero(col.Type().Elem()))
	}
	return r
}

func (a *archetype) set(r row, id componentId, v reflect.Value) {
	a.columns[id].Index(int(r)).Set(v)
}

// column returns the typed slice backing a component. Pointers into it stay
// valid until the next row is appended.
func (a *archetype) column(id componentId) (any, bool) {
	col, ok := a.columns[id]
	if !ok {
		return nil, false
	}
	return col.Interface(), true
}

// release zeroes the entity's row so it holds no references, and frees it.
func (a *archetype) release(e EntityId) {
	r := a.rows[e]
	for _, col := range a.columns {
		col.Index(int(r)).SetZero()
	}
	delete(a.rows, e)
	a.free = append(a.free, r)
}

func (ecs *Ecs) nextEntityId() EntityId {
	return EntityId(ecs.nextId.Add(1) - 1)
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

// insertEntity stores components under an id reserved with nextEntityId. When
// a type is given twice the last value wins.
func (ecs *Ecs) insertEntity(e EntityId, components ...any) EntityId {
	ids := make([]componentId, len(components))
	values := make([]reflect.Value, len(components))
	for i, c := range components {
		ids[i] = ecs.components.id(componentType(c))
		values[i] = componentValue(c)
	}

	arch := ecs.archetypeFor(ids)
	r := arch.reserve()
	for i, id := range ids {
		arch.set(r, id, values[i])
	}
	arch.rows[e] = r
	ecs.entities[e] = arch
	return e
}

// removeEntity reports whether e was alive. Removing a dead or unknown
// entity is a no-op.
func (ecs *Ecs) removeEntity(e EntityId) bool {
	arch, ok := ecs.entities[e]
	if !ok {
		return false
	}
	arch.release(e)
	delete(ecs.entities, e)
	return true
}

func (ecs *Ecs) entityCount() int {
	return len(ecs.entities)
}

// archetypeFor returns the archetype holding exactly the given component
// ids, creating it on first use.
func (ecs *Ecs) archetypeFor(ids []componentId) *archetype {
	key := archetypeKey(ids)
	name := keyString(key)
	if arch, ok := ecs.archetypes[name]; ok {
		return arch
	}

	arch := &archetype{
		key:     key,
		columns: make(map[componentId]reflect.Value, len(key)),
		rows:    make(map[EntityId]row),
	}
	for _, id := range key {
		arch.columns[id] = reflect.MakeSlice(reflect.SliceOf(ecs.components.typeOf(id)), 0, 1)
	}
	ecs.archetypes[name] = arch
	return arch
}

func archetypeKey(ids []componentId) []componentId {
	key := slices.Clone(ids)
	slices.Sort(key)
	return slices.Compact(key)
}

func keyString(key []componentId) string {
	var b strings.Builder
	for i, id := range key {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}
