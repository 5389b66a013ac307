package sim

import (
	"math"

	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/ecs/systems"
)

var sineFamily = ecs.All(ecs.TypeOf[SineMover](), ecs.TypeOf[Position]()).Get()

// SineMoverSystem moves every SineMover along its curve once per interval.
type SineMoverSystem struct {
	*systems.IntervalIterating
	movers    ecs.Mapper[SineMover]
	positions ecs.Mapper[Position]
}

func NewSineMoverSystem(interval float64, priority int) *SineMoverSystem {
	s := &SineMoverSystem{
		movers:    ecs.NewMapper[SineMover](),
		positions: ecs.NewMapper[Position](),
	}
	s.IntervalIterating = systems.NewIntervalIterating(sineFamily, interval, priority, s.move)
	return s
}

func (s *SineMoverSystem) move(e *ecs.Entity, currentTime, _ float64) error {
	m := s.movers.Get(e)
	s.positions.Get(e).Y = m.Amplitude * math.Sin(2*math.Pi*m.Frequency*currentTime+m.Phase)
	return nil
}
