package systems

import "github.com/plus3/aco/ecs"

// IntervalFunc runs once per elapsed interval with the simulation time at the
// end of that interval.
type IntervalFunc func(currentTime float64) error

// Interval accumulates step time and runs an IntervalFunc once for every full
// interval, so its work happens on a fixed cadence regardless of step size.
type Interval struct {
	ecs.BaseSystem
	interval    float64
	accumulator float64
	currentTime float64
	update      IntervalFunc
}

// NewInterval creates an Interval. It panics if interval is not positive.
func NewInterval(interval float64, priority int, update IntervalFunc) *Interval {
	if interval <= 0 {
		panic("interval must be positive")
	}
	return &Interval{
		BaseSystem: ecs.NewBaseSystem(priority),
		interval:   interval,
		update:     update,
	}
}

func (s *Interval) AddedToEngine(engine *ecs.Engine) {
	s.currentTime = engine.CurrentTime()
	s.accumulator = 0
}

// Period returns the interval length.
func (s *Interval) Period() float64 {
	return s.interval
}

// CurrentTime returns the end time of the last processed interval.
func (s *Interval) CurrentTime() float64 {
	return s.currentTime
}

func (s *Interval) Step(deltaTime float64) error {
	s.accumulator += deltaTime
	for s.accumulator >= s.interval {
		s.accumulator -= s.interval
		s.currentTime += s.interval
		if err := s.update(s.currentTime); err != nil {
			return err
		}
	}
	return nil
}
