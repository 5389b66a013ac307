package ecs

import "slices"

type listenerEntry struct {
	listener EntityListener
	family   *Family
	priority int
}

// FamilyManager keeps one cached entity view per requested family and tells
// family listeners when entities join or leave their family.
type FamilyManager struct {
	entities  *EntityList
	views     map[*Family]*EntityList
	tracked   []*Family
	listeners []listenerEntry
	notifying int
}

// NewFamilyManager creates a manager over the authoritative collection entities.
func NewFamilyManager(entities *EntityList) *FamilyManager {
	return &FamilyManager{
		entities: entities,
		views:    make(map[*Family]*EntityList),
	}
}

// EntitiesFor returns the live view of the entities matching f. The first
// request for a family scans the authoritative collection once; later
// requests return the same view.
func (fm *FamilyManager) EntitiesFor(f *Family) *EntityList {
	if v, ok := fm.views[f]; ok {
		return v
	}
	v := newEntityList()
	fm.views[f] = v
	fm.tracked = append(fm.tracked, f)
	for _, e := range fm.entities.entities {
		if !e.removing && f.Matches(e) {
			v.add(e)
			e.families.set(f.index)
		}
	}
	return v
}

// AddEntityListener subscribes l to membership changes of f. Listeners are
// notified in ascending priority, ties in subscription order.
func (fm *FamilyManager) AddEntityListener(f *Family, priority int, l EntityListener) {
	fm.EntitiesFor(f)
	i := len(fm.listeners)
	for j, entry := range fm.listeners {
		if entry.priority > priority {
			i = j
			break
		}
	}
	fm.listeners = slices.Insert(slices.Clone(fm.listeners), i, listenerEntry{
		listener: l,
		family:   f,
		priority: priority,
	})
}

// RemoveEntityListener drops every subscription of l.
func (fm *FamilyManager) RemoveEntityListener(l EntityListener) {
	fm.listeners = slices.DeleteFunc(slices.Clone(fm.listeners), func(entry listenerEntry) bool {
		return entry.listener == l
	})
}

// Notifying reports whether family listeners are being notified.
func (fm *FamilyManager) Notifying() bool {
	return fm.notifying > 0
}

// UpdateFamilyMembership re-evaluates every tracked family for e. An entity
// that is being removed matches no family. Listeners of families e left are
// notified before listeners of families it joined.
func (fm *FamilyManager) UpdateFamilyMembership(e *Entity) {
	var added, removed bitset
	changed := false
	for _, f := range fm.tracked {
		belongs := e.families.has(f.index)
		matches := !e.removing && f.Matches(e)
		if belongs == matches {
			continue
		}
		changed = true
		if matches {
			fm.views[f].add(e)
			e.families.set(f.index)
			added.set(f.index)
		} else {
			fm.views[f].remove(e)
			e.families.clear(f.index)
			removed.set(f.index)
		}
	}
	if !changed {
		return
	}

	fm.notifying++
	defer func() { fm.notifying-- }()

	listeners := fm.listeners
	for _, entry := range listeners {
		if removed.has(entry.family.index) {
			entry.listener.EntityRemoved(e)
		}
	}
	for _, entry := range listeners {
		if added.has(entry.family.index) {
			entry.listener.EntityAdded(e)
		}
	}
}
