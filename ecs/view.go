package ecs

import (
	"iter"
	"reflect"
	"strconv"
	"unsafe"
)

// eface mirrors the runtime layout of an empty interface.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// pointerOf returns the data word of component. Components are always stored
// as pointers, so this is the component pointer itself.
func pointerOf(component any) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&component)).data
}

// View projects the components of an entity onto a struct of component
// pointers. Embedded fields are required; named fields tagged
// `ecs:"optional"` may be nil.
type View[T any] struct {
	engine      *Engine
	types       []*ComponentType
	optional    []bool
	fieldOffset []uintptr
	family      *Family
}

// NewView builds the view for T over engine. It panics when T is not a struct
// of component pointers.
func NewView[T any](engine *Engine) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	n := structType.NumField()
	v := &View[T]{
		engine:      engine,
		types:       make([]*ComponentType, 0, n),
		optional:    make([]bool, 0, n),
		fieldOffset: make([]uintptr, 0, n),
	}
	var required []*ComponentType

	for i := range n {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("ecs: view field " + field.Name + " is not a pointer")
		}

		ct := ComponentTypeFor(field.Type.Elem())
		opt := isOptionalField(field)
		v.types = append(v.types, ct)
		v.optional = append(v.optional, opt)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
		if !opt {
			required = append(required, ct)
		}
	}

	v.family = All(required...).Get()
	return v
}

func isOptionalField(field reflect.StructField) bool {
	if field.Anonymous {
		return false
	}
	switch tag := field.Tag.Get("ecs"); tag {
	case "":
		return false
	case "optional":
		return true
	default:
		panic("ecs: invalid tag " + strconv.Quote(tag) + " on field " + field.Name)
	}
}

// Family returns the family of entities carrying every required component of the view.
func (v *View[T]) Family() *Family {
	return v.family
}

// Fill points the fields of ptr at the components of e. It reports false when
// e lacks a required component.
func (v *View[T]) Fill(e *Entity, ptr *T) bool {
	structPtr := unsafe.Pointer(ptr)

	for i, componentType := range v.types {
		component := e.Get(componentType)

		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])

		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		*(*unsafe.Pointer)(fieldPtr) = pointerOf(component)
	}

	return true
}

// Get returns the view of e, or nil when e lacks a required component.
func (v *View[T]) Get(e *Entity) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// Entities returns the live family view backing the View.
func (v *View[T]) Entities() *EntityList {
	return v.engine.EntitiesFor(v.family)
}

func (v *View[T]) Len() int {
	return v.Entities().Len()
}

// Iter yields every entity of the view's family with its filled struct.
func (v *View[T]) Iter() iter.Seq2[*Entity, T] {
	return func(yield func(*Entity, T) bool) {
		entities := v.Entities()
		for i := 0; i < entities.Len(); i++ {
			e := entities.At(i)
			var result T
			if !v.Fill(e, &result) {
				continue
			}
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values is Iter without the entities.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates an entity holding every non-nil component of data and adds
// it to the engine.
func (v *View[T]) Spawn(data T) (*Entity, error) {
	structPtr := unsafe.Pointer(&data)
	e := NewEntity()
	for i, componentType := range v.types {
		fieldPtr := *(*unsafe.Pointer)(unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i]))
		if fieldPtr == nil {
			continue
		}
		component := reflect.NewAt(componentType.Type(), fieldPtr).Interface()
		e.Add(component)
	}
	if err := v.engine.AddEntity(e); err != nil {
		return nil, err
	}
	return e, nil
}
