package systems

import (
	"slices"

	"github.com/plus3/aco/ecs"
)

// Sorted runs a ProcessFunc over the entities of a family in the order given
// by compare. The order is recomputed lazily after membership changes or
// after ForceSort.
type Sorted struct {
	ecs.BaseSystem
	family  *ecs.Family
	compare func(a, b *ecs.Entity) int
	process ProcessFunc

	sorted []*ecs.Entity
	dirty  bool
}

func NewSorted(family *ecs.Family, compare func(a, b *ecs.Entity) int, priority int, process ProcessFunc) *Sorted {
	return &Sorted{
		BaseSystem: ecs.NewBaseSystem(priority),
		family:     family,
		compare:    compare,
		process:    process,
	}
}

func (s *Sorted) AddedToEngine(engine *ecs.Engine) {
	s.sorted = engine.EntitiesFor(s.family).Slice()
	s.dirty = true
	engine.AddEntityListener(s.family, 0, s)
}

func (s *Sorted) RemovedFromEngine(engine *ecs.Engine) {
	engine.RemoveEntityListener(s)
	s.sorted = nil
	s.dirty = false
}

func (s *Sorted) EntityAdded(e *ecs.Entity) {
	s.sorted = append(s.sorted, e)
	s.dirty = true
}

func (s *Sorted) EntityRemoved(e *ecs.Entity) {
	if i := slices.Index(s.sorted, e); i >= 0 {
		s.sorted = slices.Delete(s.sorted, i, i+1)
	}
}

// ForceSort re-sorts before the next step, for when the keys compare reads changed.
func (s *Sorted) ForceSort() {
	s.dirty = true
}

// Entities returns the family members in processing order.
func (s *Sorted) Entities() []*ecs.Entity {
	s.sort()
	return slices.Clone(s.sorted)
}

func (s *Sorted) sort() {
	if s.dirty {
		slices.SortStableFunc(s.sorted, s.compare)
		s.dirty = false
	}
}

func (s *Sorted) Step(deltaTime float64) error {
	s.sort()
	for _, e := range s.sorted {
		if err := s.process(e, deltaTime); err != nil {
			return err
		}
	}
	return nil
}
