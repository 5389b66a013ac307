package ecs

import "github.com/rotisserie/eris"

var (
	// ErrAlreadyRegistered is returned when an entity is added to an engine while
	// it is owned by an engine or already waiting to be added to one.
	ErrAlreadyRegistered = eris.New("entity is already registered")
	// ErrEntityNotFound is returned when removing an entity the engine neither
	// owns nor has pending.
	ErrEntityNotFound = eris.New("entity not found")
	// ErrAlreadyStepping is returned on a reentrant Step, Init or Terminate.
	ErrAlreadyStepping = eris.New("engine is already stepping")
	// ErrTerminated is returned by Step and Init after Terminate.
	ErrTerminated = eris.New("engine is terminated")
	// ErrSystemNotFound is returned by GetSystem when no system of the type is registered.
	ErrSystemNotFound = eris.New("system not found")
)
