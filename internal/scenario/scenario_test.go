package scenario_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/aco/components"
	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/internal/scenario"
	"github.com/plus3/aco/internal/sim"
)

func TestLoad(t *testing.T) {
	s, err := scenario.Load("testdata/sine.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sine", s.Name)
	assert.Equal(t, 0.1, s.Step)
	assert.Equal(t, 5.0, s.Until)
	assert.Equal(t, 1.0, s.RealtimeFactor)
	assert.Equal(t, 1.0, s.TargetRTF)
	require.NotNil(t, s.Systems.SineMover)
	assert.Equal(t, 0.1, s.Systems.SineMover.Interval)
	require.NotNil(t, s.Systems.Movement)
	assert.Equal(t, 1, s.Systems.Movement.Priority)
	require.Len(t, s.Entities, 2)
	assert.Equal(t, "myNamedEntity", s.Entities[0].Name)

	_, err = scenario.Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: x\nuntil: 1\nstep_size: 2\n", "step_size"},
		{"missing name", "until: 1\n", "name is required"},
		{"until before start", "name: x\nstart_time: 2\nuntil: 1\n", "must be after start_time"},
		{"negative step", "name: x\nuntil: 1\nstep: -1\n", "step must be positive"},
		{"short vector", "name: x\nuntil: 1\nentities:\n  - position: [1, 2]\n", "position needs 3 values"},
		{"sine without position", "name: x\nuntil: 1\nentities:\n  - sine_mover: {amplitude: 1, frequency: 1}\n", "needs a position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildAndStep(t *testing.T) {
	s, err := scenario.Load("testdata/sine.yaml")
	require.NoError(t, err)

	engine, err := s.Build()
	require.NoError(t, err)
	assert.Len(t, engine.Systems(), 2)
	assert.Equal(t, 2, engine.Entities().Len())

	named, ok := components.FindByName(engine.Entities(), "myNamedEntity")
	require.True(t, ok)
	drifter, ok := components.FindByName(engine.Entities(), "drifter")
	require.True(t, ok)

	for engine.CurrentTime() < s.Until-1e-9 {
		require.NoError(t, engine.Step(s.Step))
	}

	assert.Equal(t, int64(50), engine.StepNumber())
	assert.InDelta(t, math.Sin(2*math.Pi*0.1*5.0), ecs.Get[sim.Position](named).Y, 1e-9)
	assert.InDelta(t, 5.0, ecs.Get[sim.Position](drifter).X, 1e-9)
}
