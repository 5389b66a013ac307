package ecs

import (
	"fmt"
	"sync/atomic"
)

// EntityID identifies an entity for the life of the process.
type EntityID uint64

var lastEntityID atomic.Uint64

// Entity is an identity plus a bag of components holding at most one component
// per ComponentType. Components are stored as pointers to their payload.
//
// A standalone entity applies component changes immediately. Once added to an
// Engine its changes go through the engine, which may queue them until the
// current step reaches a safe point.
type Entity struct {
	id EntityID

	// Flags is free for callers to use.
	Flags int

	components []any
	count      int
	mask       Mask
	families   bitset

	// ComponentAdded fires after a component is attached or replaced.
	ComponentAdded Signal[*Entity]
	// ComponentRemoved fires after a component is detached.
	ComponentRemoved Signal[*Entity]

	operations          *ComponentOperationHandler
	manager             *EntityManager
	pending             *EntityManager
	scheduledForRemoval bool
	removing            bool
}

// NewEntity creates a standalone entity with a fresh ID.
func NewEntity(components ...any) *Entity {
	e := &Entity{id: EntityID(lastEntityID.Add(1))}
	for _, c := range components {
		e.Add(c)
	}
	return e
}

func (e *Entity) ID() EntityID {
	return e.id
}

// Add attaches component, replacing any component of the same type. A
// non-pointer value is copied into a new allocation.
func (e *Entity) Add(component any) *Entity {
	c, ct := normalizeComponent(component)
	if e.operations != nil {
		e.operations.add(e, c, ct)
		return e
	}
	if e.addInternal(c, ct) {
		e.ComponentAdded.Dispatch(e)
	}
	return e
}

// Remove detaches the component of type ct. Removing an absent type does nothing.
func (e *Entity) Remove(ct *ComponentType) *Entity {
	if e.operations != nil {
		e.operations.remove(e, ct)
		return e
	}
	if e.removeInternal(ct) {
		e.ComponentRemoved.Dispatch(e)
	}
	return e
}

// RemoveAll detaches every component.
func (e *Entity) RemoveAll() {
	for _, ct := range typesOf(e.mask) {
		e.Remove(ct)
	}
}

// Get returns the component of type ct, or nil.
func (e *Entity) Get(ct *ComponentType) any {
	if ct.index < len(e.components) {
		return e.components[ct.index]
	}
	return nil
}

func (e *Entity) Has(ct *ComponentType) bool {
	return e.mask.Has(ct.index)
}

// Components returns the attached components in component type slot order.
func (e *Entity) Components() []any {
	out := make([]any, 0, e.count)
	for _, c := range e.components {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// ComponentCount returns the number of attached components.
func (e *Entity) ComponentCount() int {
	return e.count
}

// ComponentMask returns the set of attached component types.
func (e *Entity) ComponentMask() Mask {
	return e.mask
}

// BelongsTo reports whether the entity is currently a member of f in its engine.
func (e *Entity) BelongsTo(f *Family) bool {
	return e.families.has(f.index)
}

// IsRegistered reports whether an engine currently owns the entity.
func (e *Entity) IsRegistered() bool {
	return e.manager != nil
}

// IsScheduledForRemoval reports whether a removal is queued for the entity.
func (e *Entity) IsScheduledForRemoval() bool {
	return e.scheduledForRemoval
}

// IsRemoving reports whether the entity is being removed right now, that is
// while removal notifications are being delivered.
func (e *Entity) IsRemoving() bool {
	return e.removing
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity(%d)", e.id)
}

// addInternal stores c and reports whether anything changed.
func (e *Entity) addInternal(c any, ct *ComponentType) bool {
	if ct.index >= len(e.components) {
		grown := make([]any, ct.index+1)
		copy(grown, e.components)
		e.components = grown
	}
	old := e.components[ct.index]
	if old == c {
		return false
	}
	if old == nil {
		e.count++
	}
	e.components[ct.index] = c
	e.mask.Set(ct.index)
	return true
}

func (e *Entity) removeInternal(ct *ComponentType) bool {
	if !e.mask.Has(ct.index) {
		return false
	}
	e.components[ct.index] = nil
	e.count--
	e.mask.Clear(ct.index)
	return true
}
