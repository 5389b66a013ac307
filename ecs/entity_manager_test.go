package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerRecorder struct {
	added   []*Entity
	removed []*Entity
}

func (r *managerRecorder) EntityAdded(e *Entity) {
	r.added = append(r.added, e)
}

func (r *managerRecorder) EntityRemoved(e *Entity) {
	r.removed = append(r.removed, e)
}

func TestEntityManagerImmediate(t *testing.T) {
	recorder := &managerRecorder{}
	manager := NewEntityManager(recorder)

	e1, e2 := NewEntity(), NewEntity()
	require.NoError(t, manager.Add(e1, false))
	require.NoError(t, manager.Add(e2, false))

	assert.Equal(t, 2, manager.Entities().Len())
	assert.Equal(t, []*Entity{e1, e2}, recorder.added)
	assert.True(t, e1.IsRegistered())

	found, ok := manager.Entities().Lookup(e2.ID())
	assert.True(t, ok)
	assert.Same(t, e2, found)

	require.NoError(t, manager.Remove(e1, false))
	assert.Equal(t, []*Entity{e1}, recorder.removed)
	assert.False(t, e1.IsRegistered())
	assert.False(t, manager.Entities().Contains(e1))
	assert.True(t, manager.Entities().Contains(e2))

	manager.RemoveAll(false)
	assert.Equal(t, 0, manager.Entities().Len())
}

func TestEntityManagerErrors(t *testing.T) {
	t.Run("adding twice", func(t *testing.T) {
		manager := NewEntityManager(&managerRecorder{})
		e := NewEntity()
		require.NoError(t, manager.Add(e, false))
		assert.ErrorIs(t, manager.Add(e, false), ErrAlreadyRegistered)
		assert.ErrorIs(t, manager.Add(e, true), ErrAlreadyRegistered)
	})

	t.Run("adding twice delayed", func(t *testing.T) {
		manager := NewEntityManager(&managerRecorder{})
		e := NewEntity()
		require.NoError(t, manager.Add(e, true))
		assert.ErrorIs(t, manager.Add(e, true), ErrAlreadyRegistered)
		require.NoError(t, manager.ProcessPendingOperations())
		assert.Equal(t, 1, manager.Entities().Len())
	})

	t.Run("adding to a second manager", func(t *testing.T) {
		first := NewEntityManager(&managerRecorder{})
		second := NewEntityManager(&managerRecorder{})
		e := NewEntity()
		require.NoError(t, first.Add(e, false))
		assert.ErrorIs(t, second.Add(e, false), ErrAlreadyRegistered)
		assert.ErrorIs(t, second.Add(e, true), ErrAlreadyRegistered)
	})

	t.Run("removing an unknown entity", func(t *testing.T) {
		manager := NewEntityManager(&managerRecorder{})
		assert.ErrorIs(t, manager.Remove(NewEntity(), false), ErrEntityNotFound)
		assert.ErrorIs(t, manager.Remove(NewEntity(), true), ErrEntityNotFound)
	})

	t.Run("removing twice delayed is a no-op", func(t *testing.T) {
		recorder := &managerRecorder{}
		manager := NewEntityManager(recorder)
		e := NewEntity()
		require.NoError(t, manager.Add(e, false))
		require.NoError(t, manager.Remove(e, true))
		require.NoError(t, manager.Remove(e, true))
		assert.True(t, e.IsScheduledForRemoval())

		require.NoError(t, manager.ProcessPendingOperations())
		assert.Len(t, recorder.removed, 1)
		assert.False(t, e.IsScheduledForRemoval())
	})
}

func TestEntityManagerDelayed(t *testing.T) {
	t.Run("operations wait for processing", func(t *testing.T) {
		recorder := &managerRecorder{}
		manager := NewEntityManager(recorder)
		e := NewEntity()

		require.NoError(t, manager.Add(e, true))
		assert.True(t, manager.HasPendingOperations())
		assert.Equal(t, 0, manager.Entities().Len())
		assert.Empty(t, recorder.added)

		require.NoError(t, manager.ProcessPendingOperations())
		assert.False(t, manager.HasPendingOperations())
		assert.Equal(t, 1, manager.Entities().Len())
	})

	t.Run("operations apply in submission order", func(t *testing.T) {
		recorder := &managerRecorder{}
		manager := NewEntityManager(recorder)
		e1, e2, e3 := NewEntity(), NewEntity(), NewEntity()
		require.NoError(t, manager.Add(e1, false))

		require.NoError(t, manager.Add(e2, true))
		require.NoError(t, manager.Remove(e1, true))
		require.NoError(t, manager.Add(e3, true))
		require.NoError(t, manager.ProcessPendingOperations())

		assert.Equal(t, []*Entity{e1, e2, e3}, recorder.added)
		assert.Equal(t, []*Entity{e1}, recorder.removed)
		assert.Equal(t, []*Entity{e2, e3}, manager.Entities().Slice())
	})

	t.Run("remove then add again", func(t *testing.T) {
		recorder := &managerRecorder{}
		manager := NewEntityManager(recorder)
		e := NewEntity()
		require.NoError(t, manager.Add(e, false))

		require.NoError(t, manager.Remove(e, true))
		require.NoError(t, manager.Add(e, true))
		require.NoError(t, manager.ProcessPendingOperations())

		assert.Equal(t, 1, manager.Entities().Len())
		assert.Len(t, recorder.removed, 1)
		assert.Len(t, recorder.added, 2)
	})

	t.Run("remove all then add again", func(t *testing.T) {
		manager := NewEntityManager(&managerRecorder{})
		e := NewEntity()
		require.NoError(t, manager.Add(e, false))

		manager.RemoveAll(true)
		require.NoError(t, manager.Add(e, true))
		require.NoError(t, manager.ProcessPendingOperations())

		assert.Equal(t, 1, manager.Entities().Len())
		assert.True(t, e.IsRegistered())
	})

	t.Run("remove all snapshots the owned set", func(t *testing.T) {
		manager := NewEntityManager(&managerRecorder{})
		e1, e2 := NewEntity(), NewEntity()
		require.NoError(t, manager.Add(e1, false))

		manager.RemoveAll(true)
		require.NoError(t, manager.Add(e2, true))
		require.NoError(t, manager.ProcessPendingOperations())

		assert.Equal(t, []*Entity{e2}, manager.Entities().Slice())
	})

	t.Run("add then remove a pending entity", func(t *testing.T) {
		recorder := &managerRecorder{}
		manager := NewEntityManager(recorder)
		e := NewEntity()
		require.NoError(t, manager.Add(e, true))
		require.NoError(t, manager.Remove(e, true))
		require.NoError(t, manager.ProcessPendingOperations())

		assert.Equal(t, 0, manager.Entities().Len())
		assert.Len(t, recorder.added, 1)
		assert.Len(t, recorder.removed, 1)
	})

	t.Run("operations queued while processing are processed", func(t *testing.T) {
		e1, e2 := NewEntity(), NewEntity()
		var manager *EntityManager
		listener := &chainListener{onAdded: func(e *Entity) {
			if e == e1 {
				require.NoError(t, manager.Add(e2, true))
			}
		}}
		manager = NewEntityManager(listener)

		require.NoError(t, manager.Add(e1, true))
		require.NoError(t, manager.ProcessPendingOperations())
		assert.Equal(t, 2, manager.Entities().Len())
	})
}

type chainListener struct {
	onAdded func(e *Entity)
}

func (l *chainListener) EntityAdded(e *Entity) {
	l.onAdded(e)
}

func (l *chainListener) EntityRemoved(*Entity) {}

func TestEntityListSwapRemove(t *testing.T) {
	list := newEntityList()
	a, b, c := NewEntity(), NewEntity(), NewEntity()
	assert.True(t, list.add(a))
	assert.True(t, list.add(b))
	assert.True(t, list.add(c))
	assert.False(t, list.add(b))

	assert.True(t, list.remove(a))
	assert.False(t, list.remove(a))
	assert.Equal(t, []*Entity{c, b}, list.Slice())
	assert.True(t, list.Contains(c))
	assert.Equal(t, c, list.At(0))

	var seen []*Entity
	for e := range list.All() {
		seen = append(seen, e)
	}
	assert.Equal(t, []*Entity{c, b}, seen)
}
