package ecs

import "iter"

// Query is a View declared as an exported field of a system. The engine
// initialises it when the system is added.
type Query[T any] struct {
	view *View[T]
}

// NewQuery creates a Query over engine.
func NewQuery[T any](engine *Engine) *Query[T] {
	q := &Query[T]{}
	q.Init(engine)
	return q
}

// Init initializes or re-initializes the Query with an engine.
func (q *Query[T]) Init(engine *Engine) {
	q.view = NewView[T](engine)
}

func (q *Query[T]) initQuery(engine *Engine) {
	q.Init(engine)
}

func (q *Query[T]) mustView(method string) *View[T] {
	if q.view == nil {
		panic("Query." + method + "() called before the system was added to an engine")
	}
	return q.view
}

// Iter returns an iterator over entities and their component data.
func (q *Query[T]) Iter() iter.Seq2[*Entity, T] {
	return q.mustView("Iter").Iter()
}

// Values returns an iterator over component data only.
func (q *Query[T]) Values() iter.Seq[T] {
	return q.mustView("Values").Values()
}

func (q *Query[T]) Len() int {
	return q.mustView("Len").Len()
}

// Get returns the component data of e, or nil if e does not match.
func (q *Query[T]) Get(e *Entity) *T {
	return q.mustView("Get").Get(e)
}

// Entities returns the live view of the matching entities.
func (q *Query[T]) Entities() *EntityList {
	return q.mustView("Entities").Entities()
}

func (q *Query[T]) Family() *Family {
	return q.mustView("Family").Family()
}
