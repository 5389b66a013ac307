package ecs

// Get returns the T component of e, or nil.
func Get[T any](e *Entity) *T {
	c := e.Get(TypeOf[T]())
	if c == nil {
		return nil
	}
	return c.(*T)
}

// Has reports whether e carries a T component.
func Has[T any](e *Entity) bool {
	return e.Has(TypeOf[T]())
}

// Mapper resolves the ComponentType of T once so repeated lookups in hot
// loops skip the type registry.
type Mapper[T any] struct {
	ct *ComponentType
}

func NewMapper[T any]() Mapper[T] {
	return Mapper[T]{ct: TypeOf[T]()}
}

func (m Mapper[T]) Type() *ComponentType {
	return m.ct
}

// Get returns the T component of e, or nil.
func (m Mapper[T]) Get(e *Entity) *T {
	if m.ct.index >= len(e.components) {
		return nil
	}
	c := e.components[m.ct.index]
	if c == nil {
		return nil
	}
	return c.(*T)
}

func (m Mapper[T]) Has(e *Entity) bool {
	return e.mask.Has(m.ct.index)
}
