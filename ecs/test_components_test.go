package ecs_test

import "github.com/plus3/aco/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-pointer components
type Score int32
type Tag string

type ComponentA struct{ Value int }
type ComponentB struct{ Value int }
type ComponentC struct{ Value int }
type ComponentD struct{ Value int }
type ComponentE struct{ Value int }
type ComponentF struct{ Value int }

var (
	typeA = ecs.TypeOf[ComponentA]()
	typeB = ecs.TypeOf[ComponentB]()
	typeC = ecs.TypeOf[ComponentC]()
	typeD = ecs.TypeOf[ComponentD]()
	typeE = ecs.TypeOf[ComponentE]()
	typeF = ecs.TypeOf[ComponentF]()
)

// recordingListener records entity notifications in arrival order.
type recordingListener struct {
	name    string
	events  *[]string
	added   int
	removed int
}

func (l *recordingListener) EntityAdded(e *ecs.Entity) {
	l.added++
	if l.events != nil {
		*l.events = append(*l.events, l.name+" added")
	}
}

func (l *recordingListener) EntityRemoved(e *ecs.Entity) {
	l.removed++
	if l.events != nil {
		*l.events = append(*l.events, l.name+" removed")
	}
}

// funcListener adapts a pair of closures to ecs.EntityListener.
type funcListener struct {
	added   func(e *ecs.Entity)
	removed func(e *ecs.Entity)
}

func (l *funcListener) EntityAdded(e *ecs.Entity) {
	if l.added != nil {
		l.added(e)
	}
}

func (l *funcListener) EntityRemoved(e *ecs.Entity) {
	if l.removed != nil {
		l.removed(e)
	}
}

// funcSystem runs step on every Step.
type funcSystem struct {
	ecs.BaseSystem
	step func(dt float64) error
}

func (s *funcSystem) Step(dt float64) error {
	if s.step == nil {
		return nil
	}
	return s.step(dt)
}

// Distinct system types, since an engine holds one system per concrete type.
type systemA struct{ funcSystem }
type systemB struct{ funcSystem }
type systemC struct{ funcSystem }

func newSystemA(priority int, step func(dt float64) error) *systemA {
	return &systemA{funcSystem{BaseSystem: ecs.NewBaseSystem(priority), step: step}}
}

func newSystemB(priority int, step func(dt float64) error) *systemB {
	return &systemB{funcSystem{BaseSystem: ecs.NewBaseSystem(priority), step: step}}
}

func newSystemC(priority int, step func(dt float64) error) *systemC {
	return &systemC{funcSystem{BaseSystem: ecs.NewBaseSystem(priority), step: step}}
}
