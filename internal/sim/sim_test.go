package sim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/internal/sim"
)

func TestSineMover(t *testing.T) {
	engine := ecs.NewEngine()
	engine.AddSystem(sim.NewSineMoverSystem(0.1, 0))

	pos := &sim.Position{}
	e := ecs.NewEntity(pos, &sim.SineMover{Amplitude: 1, Frequency: 0.1})
	require.NoError(t, engine.AddEntity(e))

	for i := 0; i < 50; i++ {
		require.NoError(t, engine.Step(0.1))
	}

	assert.InDelta(t, math.Sin(2*math.Pi*0.1*5.0), pos.Y, 1e-9)
	assert.InDelta(t, 5.0, engine.CurrentTime(), 1e-9)
}

func TestMovement(t *testing.T) {
	engine := ecs.NewEngine()
	engine.AddSystem(sim.NewMovementSystem(0))

	pos := &sim.Position{X: 1}
	require.NoError(t, engine.AddEntity(ecs.NewEntity(pos, &sim.Velocity{X: 2, Z: -1})))
	still := &sim.Position{X: 1}
	require.NoError(t, engine.AddEntity(ecs.NewEntity(still)))

	for i := 0; i < 4; i++ {
		require.NoError(t, engine.Step(0.25))
	}
	assert.InDelta(t, 3.0, pos.X, 1e-12)
	assert.InDelta(t, -1.0, pos.Z, 1e-12)
	assert.Equal(t, 1.0, still.X)
}

func TestStressEngine(t *testing.T) {
	engine, err := sim.NewStressEngine(500, 42)
	require.NoError(t, err)
	assert.Equal(t, 500, engine.Entities().Len())

	for i := 0; i < 60; i++ {
		require.NoError(t, engine.Step(0.05))
	}

	assert.Equal(t, 500, engine.Entities().Len())
	reaper, err := ecs.GetSystem[*sim.ReaperSystem](engine)
	require.NoError(t, err)
	assert.Positive(t, reaper.Reaped)

	lifetimes := engine.EntitiesFor(ecs.All(ecs.TypeOf[sim.Lifetime]()).Get())
	for e := range lifetimes.All() {
		assert.Greater(t, ecs.Get[sim.Lifetime](e).Remaining, -0.05-1e-9)
	}

	stats := engine.Stats()
	assert.Equal(t, 5, stats.SystemCount)
	assert.Equal(t, int64(60), stats.Steps)
}

func TestSpawnerIsDeterministic(t *testing.T) {
	a, b := sim.NewSpawner(7), sim.NewSpawner(7)
	for i := 0; i < 10; i++ {
		ea, eb := a.Entity(1), b.Entity(1)
		assert.Equal(t, *ecs.Get[sim.Position](ea), *ecs.Get[sim.Position](eb))
		assert.Equal(t, ea.ComponentMask(), eb.ComponentMask())
	}
}
