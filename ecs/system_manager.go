package ecs

import (
	"cmp"
	"reflect"
	"slices"
)

// SystemListener is notified when systems are registered or unregistered.
type SystemListener interface {
	SystemAdded(s System)
	SystemRemoved(s System)
}

// SystemManager keeps systems ordered by priority and keyed by concrete type.
// The ordered slice is replaced, never mutated, so a caller ranging over it
// while systems change keeps a consistent snapshot.
type SystemManager struct {
	listener SystemListener
	systems  []System
	byType   map[reflect.Type]System
}

func NewSystemManager(listener SystemListener) *SystemManager {
	return &SystemManager{
		listener: listener,
		byType:   make(map[reflect.Type]System),
	}
}

// Add registers s. A system of the same concrete type is removed first.
func (m *SystemManager) Add(s System) {
	t := reflect.TypeOf(s)
	if old, ok := m.byType[t]; ok {
		m.Remove(old)
	}

	next := append(slices.Clip(m.systems), s)
	slices.SortStableFunc(next, func(a, b System) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})
	m.systems = next
	m.byType[t] = s
	m.listener.SystemAdded(s)
}

// Remove unregisters s and reports whether it was registered.
func (m *SystemManager) Remove(s System) bool {
	t := reflect.TypeOf(s)
	if m.byType[t] != s {
		return false
	}
	i := slices.Index(m.systems, s)
	m.systems = slices.Concat(m.systems[:i], m.systems[i+1:])
	delete(m.byType, t)
	m.listener.SystemRemoved(s)
	return true
}

// RemoveAll unregisters every system, lowest priority first.
func (m *SystemManager) RemoveAll() {
	for len(m.systems) > 0 {
		m.Remove(m.systems[0])
	}
}

// Get returns the system whose concrete type is t.
func (m *SystemManager) Get(t reflect.Type) (System, bool) {
	s, ok := m.byType[t]
	return s, ok
}

// Systems returns the registered systems in step order.
func (m *SystemManager) Systems() []System {
	return slices.Clone(m.systems)
}

func (m *SystemManager) contains(s System) bool {
	return m.byType[reflect.TypeOf(s)] == s
}

type queryInitializer interface {
	initQuery(engine *Engine)
}

// initializeQueries binds every exported Query field of system to engine.
func initializeQueries(system System, engine *Engine) {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		if q, ok := field.Addr().Interface().(queryInitializer); ok {
			q.initQuery(engine)
		}
	}
}

func systemName(s System) string {
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
