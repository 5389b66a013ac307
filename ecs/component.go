package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// MaxComponentTypes is the number of distinct component types a process can use.
const MaxComponentTypes = maskWords * 64

// ComponentType is the identity of a component payload type. Each distinct Go
// type is assigned a stable slot the first time it is seen, and the slot is
// never reused for the life of the process.
type ComponentType struct {
	index int
	typ   reflect.Type
}

// Index returns the slot assigned to the type.
func (ct *ComponentType) Index() int {
	return ct.index
}

// Type returns the payload type. It is never a pointer type.
func (ct *ComponentType) Type() reflect.Type {
	return ct.typ
}

func (ct *ComponentType) String() string {
	return ct.typ.String()
}

var componentTypes = struct {
	sync.RWMutex
	byType map[reflect.Type]*ComponentType
	bySlot []*ComponentType
}{
	byType: make(map[reflect.Type]*ComponentType),
}

// TypeOf returns the ComponentType for T. T is the payload type, not a pointer to it.
func TypeOf[T any]() *ComponentType {
	return ComponentTypeFor(reflect.TypeFor[T]())
}

// ComponentTypeFor returns the ComponentType for t. A pointer type resolves to
// its element type, so *Position and Position share an identity.
func ComponentTypeFor(t reflect.Type) *ComponentType {
	if t == nil {
		panic("cannot resolve the component type of nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		panic(fmt.Sprintf("%s cannot be used as a component type", t))
	}

	componentTypes.RLock()
	ct, ok := componentTypes.byType[t]
	componentTypes.RUnlock()
	if ok {
		return ct
	}

	componentTypes.Lock()
	defer componentTypes.Unlock()
	if ct, ok := componentTypes.byType[t]; ok {
		return ct
	}
	if len(componentTypes.bySlot) >= MaxComponentTypes {
		panic(fmt.Sprintf("too many component types: cannot register %s", t))
	}
	ct = &ComponentType{index: len(componentTypes.bySlot), typ: t}
	componentTypes.byType[t] = ct
	componentTypes.bySlot = append(componentTypes.bySlot, ct)
	return ct
}

func componentTypeAt(slot int) *ComponentType {
	componentTypes.RLock()
	defer componentTypes.RUnlock()
	return componentTypes.bySlot[slot]
}

// typesOf returns the component types marked in m in slot order.
func typesOf(m Mask) []*ComponentType {
	slots := m.Slots()
	types := make([]*ComponentType, len(slots))
	for i, slot := range slots {
		types[i] = componentTypeAt(slot)
	}
	return types
}

// normalizeComponent returns component as a pointer together with its type.
// Values are copied into a fresh allocation so the entity owns its instance.
func normalizeComponent(component any) (any, *ComponentType) {
	if component == nil {
		panic("cannot add a nil component")
	}
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			panic("cannot add a nil component")
		}
		return component, ComponentTypeFor(v.Type())
	}
	ct := ComponentTypeFor(v.Type())
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr.Interface(), ct
}
