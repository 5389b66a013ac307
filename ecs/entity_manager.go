package ecs

import (
	"errors"
	"sync"

	"github.com/rotisserie/eris"
)

// EntityListener is notified when entities join or leave a collection.
type EntityListener interface {
	EntityAdded(e *Entity)
	EntityRemoved(e *Entity)
}

type entityOpKind int

const (
	entityOpAdd entityOpKind = iota
	entityOpRemove
	entityOpRemoveAll
)

type entityOperation struct {
	kind     entityOpKind
	entity   *Entity
	entities []*Entity
}

// EntityManager owns the authoritative entity collection of an engine. When
// asked to delay, registrations and removals are queued in submission order
// until ProcessPendingOperations. Queueing is safe from several goroutines.
type EntityManager struct {
	listener EntityListener
	entities *EntityList

	mu      sync.Mutex
	pending []entityOperation
}

// NewEntityManager creates a manager reporting membership changes to listener.
func NewEntityManager(listener EntityListener) *EntityManager {
	return &EntityManager{
		listener: listener,
		entities: newEntityList(),
	}
}

// Entities returns the live view of every owned entity.
func (m *EntityManager) Entities() *EntityList {
	return m.entities
}

// Add registers e, immediately or once pending operations are processed.
func (m *EntityManager) Add(e *Entity, delayed bool) error {
	if !delayed {
		if err := m.checkAdd(e); err != nil {
			return err
		}
		return m.addInternal(e)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAdd(e); err != nil {
		return err
	}
	e.pending = m
	m.pending = append(m.pending, entityOperation{kind: entityOpAdd, entity: e})
	return nil
}

func (m *EntityManager) checkAdd(e *Entity) error {
	switch {
	case e.pending != nil:
		return eris.Wrapf(ErrAlreadyRegistered, "%s is waiting to be added", e)
	case e.manager != nil && e.manager != m:
		return eris.Wrapf(ErrAlreadyRegistered, "%s belongs to another engine", e)
	case e.manager == m && !e.scheduledForRemoval:
		return eris.Wrapf(ErrAlreadyRegistered, "%s", e)
	}
	return nil
}

// Remove unregisters e, immediately or once pending operations are processed.
// Removing an entity that is already scheduled for removal, or being removed,
// does nothing.
func (m *EntityManager) Remove(e *Entity, delayed bool) error {
	if !delayed {
		if e.removing {
			return nil
		}
		if e.manager != m {
			return eris.Wrapf(ErrEntityNotFound, "%s", e)
		}
		m.removeInternal(e)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e.scheduledForRemoval || e.removing {
		return nil
	}
	if e.manager != m && e.pending != m {
		return eris.Wrapf(ErrEntityNotFound, "%s", e)
	}
	e.scheduledForRemoval = true
	m.pending = append(m.pending, entityOperation{kind: entityOpRemove, entity: e})
	return nil
}

// RemoveAll unregisters every entity owned when the call is made.
func (m *EntityManager) RemoveAll(delayed bool) {
	m.RemoveEntities(m.entities.Slice(), delayed)
}

// RemoveEntities unregisters each of entities that this manager owns.
func (m *EntityManager) RemoveEntities(entities []*Entity, delayed bool) {
	if !delayed {
		for _, e := range entities {
			m.removeInternal(e)
		}
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		if e.manager == m && !e.removing {
			e.scheduledForRemoval = true
		}
	}
	m.pending = append(m.pending, entityOperation{kind: entityOpRemoveAll, entities: entities})
}

// HasPendingOperations reports whether any queued operation is waiting.
func (m *EntityManager) HasPendingOperations() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending) > 0
}

// ProcessPendingOperations applies queued operations in submission order,
// including any queued while processing, until the queue is empty.
func (m *EntityManager) ProcessPendingOperations() error {
	var errs []error
	for {
		op, ok := m.popPending()
		if !ok {
			break
		}
		switch op.kind {
		case entityOpAdd:
			if err := m.addInternal(op.entity); err != nil {
				errs = append(errs, err)
			}
		case entityOpRemove:
			m.removeInternal(op.entity)
		case entityOpRemoveAll:
			for _, e := range op.entities {
				m.removeInternal(e)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *EntityManager) popPending() (entityOperation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		m.pending = nil
		return entityOperation{}, false
	}
	op := m.pending[0]
	m.pending[0] = entityOperation{}
	m.pending = m.pending[1:]
	return op, true
}

func (m *EntityManager) addInternal(e *Entity) error {
	if e.pending == m {
		e.pending = nil
	}
	if e.manager != nil {
		return eris.Wrapf(ErrAlreadyRegistered, "%s", e)
	}
	e.manager = m
	m.entities.add(e)
	m.listener.EntityAdded(e)
	return nil
}

func (m *EntityManager) removeInternal(e *Entity) {
	if e.manager != m {
		if e.pending != m {
			e.scheduledForRemoval = false
		}
		return
	}
	e.scheduledForRemoval = false
	e.removing = true
	m.entities.remove(e)
	m.listener.EntityRemoved(e)
	e.removing = false
	e.manager = nil
}
