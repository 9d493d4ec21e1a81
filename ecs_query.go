package cellular

import (
	"cmp"
	"reflect"
	"slices"
)

// Queries visit every entity that has all of the requested components.
// Components listed as optionals may be missing, in which case Map passes a
// nil pointer for them. The visiting order is stable between calls.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]       { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] { return Query2[A, B]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := componentIdOf[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		comps1, ok := column[A](arch, id1, opt)
		if !ok {
			continue
		}

		for _, e := range arch.sortedEntities() {
			if !m(e.id, at(comps1, e.row)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1, id2 := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.sortedArchetypes() {
		comps1, ok := column[A](arch, id1, opt)
		if !ok {
			continue
		}
		comps2, ok := column[B](arch, id2, opt)
		if !ok {
			continue
		}

		for _, e := range arch.sortedEntities() {
			if !m(e.id, at(comps1, e.row), at(comps2, e.row)) {
				return
			}
		}
	}
}

// column returns the typed component slice of an archetype. A missing
// optional component yields a nil slice and ok; a missing required one
// yields !ok.
func column[T any](arch *archetype, id componentId, optionals set[componentId]) ([]T, bool) {
	if data, ok := arch.column(id); ok {
		return data.([]T), true
	}
	if _, ok := optionals[id]; ok {
		return nil, true
	}
	return nil, false
}

func at[T any](comps []T, r row) *T {
	if comps == nil {
		return nil
	}
	return &comps[r]
}

type entityRow struct {
	id  EntityId
	row row
}

func (arch *archetype) sortedEntities() []entityRow {
	res := make([]entityRow, 0, len(arch.rows))
	for id, r := range arch.rows {
		res = append(res, entityRow{id: id, row: r})
	}
	slices.SortFunc(res, func(a, b entityRow) int { return cmp.Compare(a.id, b.id) })
	return res
}

func (ecs *Ecs) sortedArchetypes() []*archetype {
	res := make([]*archetype, 0, len(ecs.archetypes))
	for _, arch := range ecs.archetypes {
		res = append(res, arch)
	}
	slices.SortFunc(res, func(a, b *archetype) int { return slices.Compare(a.key, b.key) })
	return res
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		res[ecs.components.id(componentType(c))] = struct{}{}
	}

	return res
}

func componentIdOf[T any](ecs *Ecs) componentId {
	return ecs.components.id(reflect.TypeFor[T]())
}
