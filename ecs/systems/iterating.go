package systems

import "github.com/plus3/aco/ecs"

// ProcessFunc handles a single entity during a step.
type ProcessFunc func(entity *ecs.Entity, deltaTime float64) error

// Iterating runs a ProcessFunc over every entity of a family each step.
type Iterating struct {
	ecs.BaseSystem
	family   *ecs.Family
	entities *ecs.EntityList
	process  ProcessFunc
}

func NewIterating(family *ecs.Family, priority int, process ProcessFunc) *Iterating {
	return &Iterating{
		BaseSystem: ecs.NewBaseSystem(priority),
		family:     family,
		process:    process,
	}
}

func (s *Iterating) AddedToEngine(engine *ecs.Engine) {
	s.entities = engine.EntitiesFor(s.family)
}

func (s *Iterating) RemovedFromEngine(*ecs.Engine) {
	s.entities = nil
}

func (s *Iterating) Family() *ecs.Family {
	return s.family
}

// Entities returns the live family view, or nil before the system is added.
func (s *Iterating) Entities() *ecs.EntityList {
	return s.entities
}

func (s *Iterating) Step(deltaTime float64) error {
	return forEach(s.entities, func(e *ecs.Entity) error {
		return s.process(e, deltaTime)
	})
}

func forEach(entities *ecs.EntityList, fn func(*ecs.Entity) error) error {
	if entities == nil {
		return nil
	}
	for i := 0; i < entities.Len(); i++ {
		if err := fn(entities.At(i)); err != nil {
			return err
		}
	}
	return nil
}
