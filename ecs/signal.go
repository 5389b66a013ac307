package ecs

import "slices"

// Listener receives values dispatched by a Signal.
type Listener[T any] interface {
	Receive(signal *Signal[T], value T)
}

// Signal dispatches a value to its listeners in subscription order. Listeners
// added or removed during a dispatch take effect from the next dispatch.
type Signal[T any] struct {
	listeners []Listener[T]
}

// Add subscribes l.
func (s *Signal[T]) Add(l Listener[T]) {
	s.listeners = append(slices.Clip(s.listeners), l)
}

// Remove unsubscribes the first subscription of l and reports whether one existed.
func (s *Signal[T]) Remove(l Listener[T]) bool {
	i := slices.Index(s.listeners, l)
	if i < 0 {
		return false
	}
	s.listeners = slices.Concat(s.listeners[:i], s.listeners[i+1:])
	return true
}

func (s *Signal[T]) Len() int {
	return len(s.listeners)
}

// Dispatch delivers value to every listener subscribed when the dispatch began.
func (s *Signal[T]) Dispatch(value T) {
	for _, l := range s.listeners {
		l.Receive(s, value)
	}
}
