package ecs

import (
	"reflect"
	"sync"

	"github.com/rotisserie/eris"
)

// ComponentFactory constructs a default instance of a component type. It
// returns a pointer to the payload.
type ComponentFactory func() (any, error)

// ComponentRegistry holds the construction rules used by Engine.CreateComponent.
// Each Engine can carry its own registry, allowing independent simulations to
// construct components differently.
type ComponentRegistry struct {
	mu        sync.RWMutex
	factories map[reflect.Type]ComponentFactory
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]ComponentFactory),
	}
}

// RegisterComponent registers a zero-value factory for T.
func RegisterComponent[T any](r *ComponentRegistry) {
	r.Register(reflect.TypeFor[T](), func() (any, error) {
		return new(T), nil
	})
}

// RegisterFactory registers fn as the factory for T.
func RegisterFactory[T any](r *ComponentRegistry, fn func() (*T, error)) {
	r.Register(reflect.TypeFor[T](), func() (any, error) {
		return fn()
	})
}

// Register sets the factory for t. A pointer type registers its element type.
func (r *ComponentRegistry) Register(t reflect.Type, factory ComponentFactory) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = factory
}

// getFactory returns the factory for t, or nil if none is registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) ComponentFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[t]
}

// Create builds an instance of t with its registered factory. Types without a
// factory get a zero value, unless their kind has no usable zero value.
func (r *ComponentRegistry) Create(t reflect.Type) (any, error) {
	if t == nil {
		return nil, eris.New("cannot create a component of nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if factory := r.getFactory(t); factory != nil {
		c, err := factory()
		if err != nil {
			return nil, eris.Wrapf(err, "constructing %s", t)
		}
		return c, nil
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer, reflect.Invalid:
		return nil, eris.Errorf("%s has no default constructor", t)
	}
	return reflect.New(t).Interface(), nil
}
