package systems

import "github.com/plus3/aco/ecs"

// IntervalProcessFunc handles a single entity once per elapsed interval.
type IntervalProcessFunc func(entity *ecs.Entity, currentTime, interval float64) error

// IntervalIterating runs an IntervalProcessFunc over every entity of a family
// once per elapsed interval.
type IntervalIterating struct {
	*Interval
	family   *ecs.Family
	entities *ecs.EntityList
	process  IntervalProcessFunc
}

func NewIntervalIterating(family *ecs.Family, interval float64, priority int, process IntervalProcessFunc) *IntervalIterating {
	s := &IntervalIterating{family: family, process: process}
	s.Interval = NewInterval(interval, priority, s.updateInterval)
	return s
}

func (s *IntervalIterating) AddedToEngine(engine *ecs.Engine) {
	s.Interval.AddedToEngine(engine)
	s.entities = engine.EntitiesFor(s.family)
}

func (s *IntervalIterating) RemovedFromEngine(*ecs.Engine) {
	s.entities = nil
}

func (s *IntervalIterating) Family() *ecs.Family {
	return s.family
}

func (s *IntervalIterating) Entities() *ecs.EntityList {
	return s.entities
}

func (s *IntervalIterating) updateInterval(currentTime float64) error {
	return forEach(s.entities, func(e *ecs.Entity) error {
		return s.process(e, currentTime, s.interval)
	})
}
