package ecs

import (
	"iter"
	"slices"

	"github.com/kamstrup/intmap"
)

// EntityList is a read-only collection of entities kept up to date by the
// engine that handed it out. Holders observe additions and removals without
// asking again. Removal swaps the last entity into the freed position, so
// order is only stable while nothing is removed.
type EntityList struct {
	entities []*Entity
	index    *intmap.Map[EntityID, int]
}

func newEntityList() *EntityList {
	return &EntityList{index: intmap.New[EntityID, int](16)}
}

func (l *EntityList) Len() int {
	return len(l.entities)
}

// At returns the entity at position i.
func (l *EntityList) At(i int) *Entity {
	return l.entities[i]
}

func (l *EntityList) Contains(e *Entity) bool {
	i, ok := l.index.Get(e.id)
	return ok && l.entities[i] == e
}

// Lookup returns the entity with the given ID.
func (l *EntityList) Lookup(id EntityID) (*Entity, bool) {
	i, ok := l.index.Get(id)
	if !ok {
		return nil, false
	}
	return l.entities[i], true
}

// All iterates over the live list. Entities added during iteration are
// visited, removals may cause an entity to be skipped.
func (l *EntityList) All() iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		for i := 0; i < len(l.entities); i++ {
			if !yield(l.entities[i]) {
				return
			}
		}
	}
}

// Slice returns a snapshot copy of the list.
func (l *EntityList) Slice() []*Entity {
	return slices.Clone(l.entities)
}

func (l *EntityList) add(e *Entity) bool {
	if _, ok := l.index.Get(e.id); ok {
		return false
	}
	l.index.Put(e.id, len(l.entities))
	l.entities = append(l.entities, e)
	return true
}

func (l *EntityList) remove(e *Entity) bool {
	i, ok := l.index.Get(e.id)
	if !ok {
		return false
	}
	last := len(l.entities) - 1
	if i != last {
		moved := l.entities[last]
		l.entities[i] = moved
		l.index.Put(moved.id, i)
	}
	l.entities[last] = nil
	l.entities = l.entities[:last]
	l.index.Del(e.id)
	return true
}
