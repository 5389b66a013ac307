package ecs

// System is a unit of per-step behaviour. An Engine steps its enabled systems
// in ascending priority order, ties in registration order. An Engine holds at
// most one system per concrete type.
type System interface {
	Priority() int
	Enabled() bool
	Step(deltaTime float64) error
}

// Optional lifecycle hooks. The engine detects them with a type assertion.
type (
	// AddedToEngineHook is called once the system is registered.
	AddedToEngineHook interface {
		AddedToEngine(engine *Engine)
	}
	// RemovedFromEngineHook is called once the system is unregistered.
	RemovedFromEngineHook interface {
		RemovedFromEngine(engine *Engine)
	}
	// PreIniter runs during the first phase of Engine.Init.
	PreIniter interface {
		PreInit()
	}
	// PostIniter runs during the second phase of Engine.Init.
	PostIniter interface {
		PostInit()
	}
	// PostStepper runs after every completed step.
	PostStepper interface {
		PostStep()
	}
	// Terminator runs once when the engine terminates.
	Terminator interface {
		Terminate() error
	}
)

type engineBinder interface {
	bindEngine(engine *Engine)
}

// BaseSystem carries the priority, enabled flag and engine reference most
// systems need. Embed it and implement Step.
type BaseSystem struct {
	priority int
	disabled bool
	engine   *Engine
}

// NewBaseSystem returns an enabled BaseSystem with the given priority.
func NewBaseSystem(priority int) BaseSystem {
	return BaseSystem{priority: priority}
}

func (s *BaseSystem) Priority() int {
	return s.priority
}

// SetPriority changes the priority. The engine reorders its systems the next
// time a system is added.
func (s *BaseSystem) SetPriority(priority int) {
	s.priority = priority
}

func (s *BaseSystem) Enabled() bool {
	return !s.disabled
}

func (s *BaseSystem) SetEnabled(enabled bool) {
	s.disabled = !enabled
}

// Engine returns the engine the system is registered with, or nil.
func (s *BaseSystem) Engine() *Engine {
	return s.engine
}

// Step does nothing.
func (s *BaseSystem) Step(float64) error {
	return nil
}

func (s *BaseSystem) bindEngine(engine *Engine) {
	s.engine = engine
}
