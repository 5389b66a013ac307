package ecs

import (
	"errors"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Engine owns entities and systems and advances a simulation clock.
//
// Structural changes requested while a step is running (or while listeners
// are being notified) are queued and applied between systems, so a system
// always iterates a stable set of entities. Changes requested outside a step
// take effect before the call returns.
//
// An Engine is not safe for concurrent use, with one exception: while a step
// is running, entity and component changes may be submitted from the
// goroutines of a parallel system.
type Engine struct {
	id       uuid.UUID
	logger   *slog.Logger
	registry *ComponentRegistry

	entities   *EntityManager
	operations *ComponentOperationHandler
	families   *FamilyManager
	systems    *SystemManager

	componentListener *componentListener
	stats             map[reflect.Type]*systemStatsInternal

	updating    bool
	draining    bool
	initialized bool
	terminated  bool

	startTime      float64
	currentTime    float64
	stepNumber     int64
	realtimeFactor float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithStartTime sets the initial simulation time.
func WithStartTime(t float64) Option {
	return func(e *Engine) {
		e.startTime = t
	}
}

// WithRealtimeFactor scales every step's delta time.
func WithRealtimeFactor(factor float64) Option {
	return func(e *Engine) {
		e.realtimeFactor = factor
	}
}

// WithLogger sets the logger for engine events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithComponentRegistry sets the registry used by CreateComponent.
func WithComponentRegistry(registry *ComponentRegistry) Option {
	return func(e *Engine) {
		e.registry = registry
	}
}

// NewEngine creates an engine with no entities and no systems.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		id:             uuid.New(),
		logger:         slog.Default(),
		registry:       NewComponentRegistry(),
		stats:          make(map[reflect.Type]*systemStatsInternal),
		realtimeFactor: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.currentTime = e.startTime
	e.logger = e.logger.With("engine", e.id.String())

	e.componentListener = &componentListener{engine: e}
	e.operations = NewComponentOperationHandler(func() bool { return e.updating })
	e.entities = NewEntityManager(engineEntityListener{engine: e})
	e.families = NewFamilyManager(e.entities.Entities())
	e.systems = NewSystemManager(engineSystemListener{engine: e})
	return e
}

// ID returns the unique identifier of the engine.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// CreateEntity returns a new standalone entity. It is not added to the engine.
func (e *Engine) CreateEntity(components ...any) *Entity {
	return NewEntity(components...)
}

// CreateComponent builds a default instance of t using the engine's registry.
// It reports false when t cannot be constructed.
func (e *Engine) CreateComponent(t reflect.Type) (any, bool) {
	c, err := e.registry.Create(t)
	if err != nil {
		e.logger.Debug("component construction failed", "type", t, "error", err)
		return nil, false
	}
	return c, true
}

// CreateComponent builds a default T using the registry of engine.
func CreateComponent[T any](engine *Engine) (*T, bool) {
	c, ok := engine.CreateComponent(reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	typed, ok := c.(*T)
	return typed, ok
}

// AddEntity registers entity with the engine.
func (e *Engine) AddEntity(entity *Entity) error {
	if err := e.entities.Add(entity, e.delayed()); err != nil {
		return err
	}
	return e.settle()
}

// RemoveEntity unregisters entity from the engine.
func (e *Engine) RemoveEntity(entity *Entity) error {
	if err := e.entities.Remove(entity, e.delayed()); err != nil {
		return err
	}
	return e.settle()
}

// RemoveAllEntities unregisters every entity owned at the time of the call.
func (e *Engine) RemoveAllEntities() error {
	e.entities.RemoveAll(e.delayed())
	return e.settle()
}

// RemoveAllEntitiesFor unregisters every entity matching f at the time of the call.
func (e *Engine) RemoveAllEntitiesFor(f *Family) error {
	e.entities.RemoveEntities(e.families.EntitiesFor(f).Slice(), e.delayed())
	return e.settle()
}

// Entities returns the live view of every entity owned by the engine.
func (e *Engine) Entities() *EntityList {
	return e.entities.Entities()
}

// Entity returns the owned entity with the given ID.
func (e *Engine) Entity(id EntityID) (*Entity, bool) {
	return e.entities.Entities().Lookup(id)
}

// EntitiesFor returns the live view of the owned entities matching f.
func (e *Engine) EntitiesFor(f *Family) *EntityList {
	return e.families.EntitiesFor(f)
}

// AddEntityListener subscribes l to entities joining or leaving f.
func (e *Engine) AddEntityListener(f *Family, priority int, l EntityListener) {
	e.families.AddEntityListener(f, priority, l)
}

// AddGlobalEntityListener subscribes l to every entity added or removed.
func (e *Engine) AddGlobalEntityListener(priority int, l EntityListener) {
	e.families.AddEntityListener(All().Get(), priority, l)
}

// RemoveEntityListener unsubscribes l from every family it listens to.
func (e *Engine) RemoveEntityListener(l EntityListener) {
	e.families.RemoveEntityListener(l)
}

// AddSystem registers s, replacing any system of the same concrete type.
func (e *Engine) AddSystem(s System) {
	e.systems.Add(s)
}

// RemoveSystem unregisters s and reports whether it was registered.
func (e *Engine) RemoveSystem(s System) bool {
	return e.systems.Remove(s)
}

// RemoveAllSystems unregisters every system.
func (e *Engine) RemoveAllSystems() {
	e.systems.RemoveAll()
}

// Systems returns the registered systems in step order.
func (e *Engine) Systems() []System {
	return e.systems.Systems()
}

// GetSystem returns the system of type T registered with engine.
func GetSystem[T System](engine *Engine) (T, error) {
	s, ok := engine.systems.Get(reflect.TypeFor[T]())
	if !ok {
		var zero T
		return zero, eris.Wrapf(ErrSystemNotFound, "%s", reflect.TypeFor[T]())
	}
	return s.(T), nil
}

// StartTime returns the simulation time the engine started at.
func (e *Engine) StartTime() float64 {
	return e.startTime
}

// CurrentTime returns the simulation time reached by the last completed step.
func (e *Engine) CurrentTime() float64 {
	return e.currentTime
}

// StepNumber returns the number of completed steps.
func (e *Engine) StepNumber() int64 {
	return e.stepNumber
}

// RealtimeFactor returns the scale applied to every step's delta time.
func (e *Engine) RealtimeFactor() float64 {
	return e.realtimeFactor
}

// SetRealtimeFactor changes the scale applied to later steps.
func (e *Engine) SetRealtimeFactor(factor float64) {
	e.realtimeFactor = factor
}

// Updating reports whether a step, Init or Terminate is in progress.
func (e *Engine) Updating() bool {
	return e.updating
}

// Terminated reports whether Terminate has been called.
func (e *Engine) Terminated() bool {
	return e.terminated
}

// Init runs the two-phase initialisation of every enabled system: PreInit on
// all of them, then PostInit on all of them. Init runs at most once; Step
// calls it if needed.
func (e *Engine) Init() error {
	if e.updating {
		return eris.Wrapf(ErrAlreadyStepping, "init")
	}
	if e.terminated {
		return eris.Wrapf(ErrTerminated, "init")
	}
	if e.initialized {
		return nil
	}
	e.initialized = true

	e.updating = true
	defer func() { e.updating = false }()

	systems := e.systems.systems
	for _, s := range systems {
		if hook, ok := s.(PreIniter); ok && s.Enabled() {
			hook.PreInit()
		}
	}
	if err := e.drain(); err != nil {
		return err
	}
	for _, s := range systems {
		if hook, ok := s.(PostIniter); ok && s.Enabled() {
			hook.PostInit()
		}
	}
	e.logger.Debug("engine initialized", "systems", len(systems))
	return e.drain()
}

// Step advances the simulation by deltaTime scaled by the realtime factor.
// Enabled systems run in priority order and queued changes are applied after
// each of them. When a system fails the rest of the step is skipped, the clock
// does not advance and the error is returned.
func (e *Engine) Step(deltaTime float64) error {
	if e.updating {
		return eris.Wrapf(ErrAlreadyStepping, "step %d", e.stepNumber)
	}
	if e.terminated {
		return eris.Wrapf(ErrTerminated, "step %d", e.stepNumber)
	}
	if !e.initialized {
		if err := e.Init(); err != nil {
			return err
		}
	}

	scaled := deltaTime * e.realtimeFactor

	e.updating = true
	defer func() { e.updating = false }()

	systems := e.systems.systems
	for _, s := range systems {
		if s.Enabled() && e.systems.contains(s) {
			if err := e.stepSystem(s, scaled); err != nil {
				return errors.Join(
					eris.Wrapf(err, "system %s failed at step %d", systemName(s), e.stepNumber),
					e.drain(),
				)
			}
		}
		if err := e.drain(); err != nil {
			return err
		}
	}

	e.currentTime += scaled
	e.stepNumber++

	for _, s := range systems {
		if hook, ok := s.(PostStepper); ok && s.Enabled() && e.systems.contains(s) {
			hook.PostStep()
		}
	}
	return nil
}

func (e *Engine) stepSystem(s System, deltaTime float64) error {
	start := time.Now()
	err := s.Step(deltaTime)
	if st, ok := e.stats[reflect.TypeOf(s)]; ok {
		st.record(time.Since(start))
	}
	return err
}

// Terminate runs the Terminate hook of every enabled system once, then applies
// the changes the hooks queued. After it returns the engine refuses to step.
func (e *Engine) Terminate() error {
	if e.updating {
		return eris.Wrapf(ErrAlreadyStepping, "terminate")
	}
	if e.terminated {
		return nil
	}
	e.terminated = true

	e.updating = true
	defer func() { e.updating = false }()

	var errs []error
	for _, s := range e.systems.systems {
		if hook, ok := s.(Terminator); ok && s.Enabled() {
			if err := hook.Terminate(); err != nil {
				errs = append(errs, eris.Wrapf(err, "terminating %s", systemName(s)))
			}
		}
	}
	errs = append(errs, e.drain())
	e.logger.Debug("engine terminated", "steps", e.stepNumber, "time", e.currentTime)
	return errors.Join(errs...)
}

// Close terminates the engine.
func (e *Engine) Close() error {
	return e.Terminate()
}

// Stats returns the execution statistics of every registered system in step order.
func (e *Engine) Stats() *EngineStats {
	systems := e.systems.systems
	stats := &EngineStats{
		SystemCount: len(systems),
		EntityCount: e.entities.Entities().Len(),
		Steps:       e.stepNumber,
		Systems:     make([]SystemStats, 0, len(systems)),
	}
	for _, s := range systems {
		st := e.stats[reflect.TypeOf(s)].snapshot()
		stats.Systems = append(stats.Systems, st)
		stats.TotalExecutions += st.ExecutionCount
	}
	return stats
}

func (e *Engine) delayed() bool {
	return e.updating || e.families.Notifying()
}

// settle applies queued changes unless a step, a drain or a notification is
// already in progress; each of those applies them itself.
func (e *Engine) settle() error {
	if e.updating || e.draining || e.families.Notifying() {
		return nil
	}
	return e.drain()
}

// drain applies queued component and entity changes until both queues are empty.
func (e *Engine) drain() error {
	e.draining = true
	defer func() { e.draining = false }()

	var errs []error
	for e.operations.HasOperationsToProcess() || e.entities.HasPendingOperations() {
		e.operations.ProcessOperations()
		if err := e.entities.ProcessPendingOperations(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type componentListener struct {
	engine *Engine
}

func (l *componentListener) Receive(_ *Signal[*Entity], entity *Entity) {
	l.engine.families.UpdateFamilyMembership(entity)
	if err := l.engine.settle(); err != nil {
		l.engine.logger.Warn("applying queued changes failed", "entity", entity.id, "error", err)
	}
}

type engineEntityListener struct {
	engine *Engine
}

func (l engineEntityListener) EntityAdded(entity *Entity) {
	e := l.engine
	entity.ComponentAdded.Add(e.componentListener)
	entity.ComponentRemoved.Add(e.componentListener)
	entity.operations = e.operations
	e.families.UpdateFamilyMembership(entity)
}

func (l engineEntityListener) EntityRemoved(entity *Entity) {
	e := l.engine
	e.families.UpdateFamilyMembership(entity)
	entity.ComponentAdded.Remove(e.componentListener)
	entity.ComponentRemoved.Remove(e.componentListener)
	entity.operations = nil
}

type engineSystemListener struct {
	engine *Engine
}

func (l engineSystemListener) SystemAdded(s System) {
	e := l.engine
	e.stats[reflect.TypeOf(s)] = newSystemStats(s)
	if b, ok := s.(engineBinder); ok {
		b.bindEngine(e)
	}
	initializeQueries(s, e)
	if hook, ok := s.(AddedToEngineHook); ok {
		hook.AddedToEngine(e)
	}
	e.logger.Debug("system added", "system", systemName(s), "priority", s.Priority())
}

func (l engineSystemListener) SystemRemoved(s System) {
	e := l.engine
	if hook, ok := s.(RemovedFromEngineHook); ok {
		hook.RemovedFromEngine(e)
	}
	if b, ok := s.(engineBinder); ok {
		b.bindEngine(nil)
	}
	delete(e.stats, reflect.TypeOf(s))
	e.logger.Debug("system removed", "system", systemName(s))
}
