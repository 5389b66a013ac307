package systems

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/plus3/aco/ecs"
)

// Parallel runs a ProcessFunc over every entity of a family concurrently,
// using at most GOMAXPROCS goroutines unless SetLimit says otherwise. Step
// returns once every entity has been processed, with the first error.
//
// The ProcessFunc may add or remove components and entities through the
// engine; those changes are queued until the step reaches its next drain.
// Anything else it shares between entities needs its own synchronisation.
type Parallel struct {
	ecs.BaseSystem
	family   *ecs.Family
	entities *ecs.EntityList
	process  ProcessFunc
	limit    int
}

func NewParallel(family *ecs.Family, priority int, process ProcessFunc) *Parallel {
	return &Parallel{
		BaseSystem: ecs.NewBaseSystem(priority),
		family:     family,
		process:    process,
		limit:      runtime.GOMAXPROCS(0),
	}
}

// SetLimit caps the number of concurrent tasks. A non-positive limit removes the cap.
func (s *Parallel) SetLimit(limit int) {
	s.limit = limit
}

func (s *Parallel) AddedToEngine(engine *ecs.Engine) {
	s.entities = engine.EntitiesFor(s.family)
}

func (s *Parallel) RemovedFromEngine(*ecs.Engine) {
	s.entities = nil
}

func (s *Parallel) Family() *ecs.Family {
	return s.family
}

func (s *Parallel) Entities() *ecs.EntityList {
	return s.entities
}

func (s *Parallel) Step(deltaTime float64) error {
	return fanOut(s.entities, s.limit, func(e *ecs.Entity) error {
		return s.process(e, deltaTime)
	})
}

// IntervalParallel is the interval-driven form of Parallel.
type IntervalParallel struct {
	*Interval
	family   *ecs.Family
	entities *ecs.EntityList
	process  IntervalProcessFunc
	limit    int
}

func NewIntervalParallel(family *ecs.Family, interval float64, priority int, process IntervalProcessFunc) *IntervalParallel {
	s := &IntervalParallel{
		family:  family,
		process: process,
		limit:   runtime.GOMAXPROCS(0),
	}
	s.Interval = NewInterval(interval, priority, s.updateInterval)
	return s
}

func (s *IntervalParallel) SetLimit(limit int) {
	s.limit = limit
}

func (s *IntervalParallel) AddedToEngine(engine *ecs.Engine) {
	s.Interval.AddedToEngine(engine)
	s.entities = engine.EntitiesFor(s.family)
}

func (s *IntervalParallel) RemovedFromEngine(*ecs.Engine) {
	s.entities = nil
}

func (s *IntervalParallel) Entities() *ecs.EntityList {
	return s.entities
}

func (s *IntervalParallel) updateInterval(currentTime float64) error {
	return fanOut(s.entities, s.limit, func(e *ecs.Entity) error {
		return s.process(e, currentTime, s.interval)
	})
}

func fanOut(entities *ecs.EntityList, limit int, fn func(*ecs.Entity) error) error {
	if entities == nil {
		return nil
	}
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < entities.Len(); i++ {
		e := entities.At(i)
		g.Go(func() error {
			return fn(e)
		})
	}
	return g.Wait()
}
