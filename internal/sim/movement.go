package sim

import "github.com/plus3/aco/ecs"

// MovementSystem integrates Velocity into Position every step.
type MovementSystem struct {
	ecs.BaseSystem
	Bodies ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func NewMovementSystem(priority int) *MovementSystem {
	return &MovementSystem{BaseSystem: ecs.NewBaseSystem(priority)}
}

func (s *MovementSystem) Step(dt float64) error {
	for _, body := range s.Bodies.Iter() {
		body.Position.X += body.Velocity.X * dt
		body.Position.Y += body.Velocity.Y * dt
		body.Position.Z += body.Velocity.Z * dt
	}
	return nil
}
