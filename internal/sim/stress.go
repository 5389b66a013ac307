package sim

import (
	"math/rand"

	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/ecs/systems"
)

var (
	lifetimeFamily = ecs.All(ecs.TypeOf[Lifetime]()).Get()
	bodyFamily     = ecs.All(ecs.TypeOf[Position]()).Get()
)

// Spawner creates randomised entities for stress runs.
type Spawner struct {
	rng *rand.Rand
}

func NewSpawner(seed int64) *Spawner {
	return &Spawner{rng: rand.New(rand.NewSource(seed))}
}

// Entity returns a new entity with a position, a lifetime of up to maxLife
// seconds and, at random, a velocity and a sine mover.
func (s *Spawner) Entity(maxLife float64) *ecs.Entity {
	e := ecs.NewEntity(
		&Position{X: s.rng.Float64() * 100, Z: s.rng.Float64() * 100},
		&Lifetime{Remaining: (0.1 + 0.9*s.rng.Float64()) * maxLife},
	)
	if s.rng.Intn(2) == 0 {
		e.Add(&Velocity{X: s.rng.NormFloat64(), Y: s.rng.NormFloat64(), Z: s.rng.NormFloat64()})
	}
	if s.rng.Intn(4) == 0 {
		e.Add(&SineMover{Amplitude: 1 + s.rng.Float64(), Frequency: 0.1 + s.rng.Float64(), Phase: s.rng.Float64()})
	}
	return e
}

// Populate adds n spawned entities to engine.
func (s *Spawner) Populate(engine *ecs.Engine, n int, maxLife float64) error {
	for i := 0; i < n; i++ {
		if err := engine.AddEntity(s.Entity(maxLife)); err != nil {
			return err
		}
	}
	return nil
}

// AgingSystem counts lifetimes down in parallel.
type AgingSystem struct {
	*systems.Parallel
}

func NewAgingSystem(priority int) *AgingSystem {
	lifetimes := ecs.NewMapper[Lifetime]()
	return &AgingSystem{systems.NewParallel(lifetimeFamily, priority, func(e *ecs.Entity, dt float64) error {
		lifetimes.Get(e).Remaining -= dt
		return nil
	})}
}

// ReaperSystem removes expired entities and replaces each with a fresh one,
// keeping the population constant.
type ReaperSystem struct {
	*systems.Iterating
	Reaped int64
}

func NewReaperSystem(spawner *Spawner, maxLife float64, priority int) *ReaperSystem {
	s := &ReaperSystem{}
	lifetimes := ecs.NewMapper[Lifetime]()
	s.Iterating = systems.NewIterating(lifetimeFamily, priority, func(e *ecs.Entity, _ float64) error {
		if lifetimes.Get(e).Remaining > 0 {
			return nil
		}
		s.Reaped++
		engine := s.Engine()
		if err := engine.RemoveEntity(e); err != nil {
			return err
		}
		return engine.AddEntity(spawner.Entity(maxLife))
	})
	return s
}

// MarkerSystem toggles the Marked tag on a random sample of bodies once per
// interval, churning family membership.
type MarkerSystem struct {
	*systems.Interval
	rng    *rand.Rand
	sample int
	bodies *ecs.EntityList
}

func NewMarkerSystem(seed int64, sample int, interval float64, priority int) *MarkerSystem {
	s := &MarkerSystem{rng: rand.New(rand.NewSource(seed)), sample: sample}
	s.Interval = systems.NewInterval(interval, priority, s.mark)
	return s
}

func (s *MarkerSystem) AddedToEngine(engine *ecs.Engine) {
	s.Interval.AddedToEngine(engine)
	s.bodies = engine.EntitiesFor(bodyFamily)
}

func (s *MarkerSystem) mark(float64) error {
	marked := ecs.TypeOf[Marked]()
	n := s.bodies.Len()
	for i := 0; i < s.sample && n > 0; i++ {
		e := s.bodies.At(s.rng.Intn(n))
		if e.Has(marked) {
			e.Remove(marked)
		} else {
			e.Add(&Marked{})
		}
	}
	return nil
}

// NewStressEngine builds an engine populated with n entities and the full set
// of stress systems.
func NewStressEngine(n int, seed int64, opts ...ecs.Option) (*ecs.Engine, error) {
	const maxLife = 2.0
	engine := ecs.NewEngine(opts...)
	spawner := NewSpawner(seed)

	engine.AddSystem(NewAgingSystem(0))
	engine.AddSystem(NewMovementSystem(1))
	engine.AddSystem(NewSineMoverSystem(0.05, 2))
	engine.AddSystem(NewMarkerSystem(seed+1, max(1, n/100), 0.1, 3))
	engine.AddSystem(NewReaperSystem(spawner, maxLife, 4))

	if err := spawner.Populate(engine, n, maxLife); err != nil {
		return nil, err
	}
	return engine, nil
}
