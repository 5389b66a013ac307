package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/runner"
)

type countingSystem struct {
	ecs.BaseSystem
	steps atomic.Int64
	err   error
}

func (s *countingSystem) Step(float64) error {
	s.steps.Add(1)
	return s.err
}

func TestHeadlessRunUntilTime(t *testing.T) {
	engine := ecs.NewEngine()
	system := &countingSystem{}
	engine.AddSystem(system)

	r := runner.NewHeadless(engine, 0.01)
	require.NoError(t, r.RunUntilTime(context.Background(), 1.0))

	assert.GreaterOrEqual(t, engine.CurrentTime(), 1.0)
	assert.InDelta(t, 100, system.steps.Load(), 1)
	assert.False(t, r.Started())

	stats := r.Stats()
	assert.Equal(t, engine.StepNumber(), stats.Steps)
	assert.Equal(t, engine.CurrentTime(), stats.Time)
	assert.InDelta(t, 1.0, stats.SimulationClock, 0.011)
}

func TestRunUntilTimeToleratesRounding(t *testing.T) {
	engine := ecs.NewEngine()
	r := runner.NewHeadless(engine, 0.1)

	require.NoError(t, r.RunUntilTime(context.Background(), 5))
	assert.Equal(t, int64(50), engine.StepNumber())
	assert.InDelta(t, 5.0, engine.CurrentTime(), 1e-9)
	assert.True(t, runner.UntilTime(5)(engine))
	assert.False(t, runner.UntilTime(5.05)(engine))
}

func TestRunFor(t *testing.T) {
	engine := ecs.NewEngine(ecs.WithStartTime(5))
	r := runner.NewHeadless(engine, 0.5)

	require.NoError(t, r.RunFor(context.Background(), 2))
	assert.Equal(t, 7.0, engine.CurrentTime())

	require.NoError(t, r.RunFor(context.Background(), 1))
	assert.Equal(t, 8.0, engine.CurrentTime())
}

func TestRunWhile(t *testing.T) {
	engine := ecs.NewEngine()
	r := runner.NewHeadless(engine, 1)

	require.NoError(t, r.RunWhile(context.Background(), func(engine *ecs.Engine) bool {
		return engine.StepNumber() < 3
	}))
	assert.Equal(t, int64(3), engine.StepNumber())
	assert.Equal(t, int64(3), r.Stats().Steps)
}

func TestStartStop(t *testing.T) {
	engine := ecs.NewEngine()
	system := &countingSystem{}
	engine.AddSystem(system)

	r := runner.NewHeadless(engine, 0.01)
	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), runner.ErrAlreadyStarted)

	assert.Eventually(t, func() bool { return system.steps.Load() > 10 }, time.Second, time.Millisecond)
	require.NoError(t, r.Stop())
	assert.False(t, r.Started())
	require.NoError(t, r.Stop())

	steps := system.steps.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, steps, system.steps.Load())
}

func TestPause(t *testing.T) {
	engine := ecs.NewEngine()
	system := &countingSystem{}
	engine.AddSystem(system)

	r := runner.NewHeadless(engine, 0.01)
	r.Pause()
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), system.steps.Load())
	assert.True(t, r.Paused())

	assert.False(t, r.TogglePause())
	assert.Eventually(t, func() bool { return system.steps.Load() > 0 }, time.Second, time.Millisecond)
}

func TestRealTimePacing(t *testing.T) {
	engine := ecs.NewEngine()
	r := runner.New(engine, runner.WithFixedStep(0.01), runner.WithTargetRealTimeFactor(1))
	assert.True(t, r.RealTimeTargetEnabled())
	assert.Equal(t, 1.0, r.TargetRealTimeFactor())

	start := time.Now()
	require.NoError(t, r.RunUntilTime(context.Background(), 0.05))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Greater(t, r.Stats().ActualRealTimeFactor, 0.0)
}

func TestCallbackAndErrors(t *testing.T) {
	t.Run("callback runs after every step", func(t *testing.T) {
		engine := ecs.NewEngine()
		var calls int
		r := runner.NewHeadless(engine, 0.1, runner.WithCallback(func(*ecs.Engine) { calls++ }))
		require.NoError(t, r.RunUntil(context.Background(), func(e *ecs.Engine) bool {
			return e.StepNumber() == 7
		}))
		assert.Equal(t, 7, calls)
	})

	t.Run("callback can abort the run", func(t *testing.T) {
		engine := ecs.NewEngine()
		var r *runner.Runner
		r = runner.NewHeadless(engine, 0.1, runner.WithCallback(func(e *ecs.Engine) {
			if e.StepNumber() == 3 {
				r.Abort()
			}
		}))
		require.NoError(t, r.Start(context.Background()))
		require.NoError(t, r.Wait())
		assert.Equal(t, int64(3), engine.StepNumber())
		assert.False(t, r.Started())
	})

	t.Run("step errors end the run", func(t *testing.T) {
		engine := ecs.NewEngine()
		errBroken := errors.New("broken")
		engine.AddSystem(&countingSystem{err: errBroken})
		r := runner.NewHeadless(engine, 0.1)
		assert.ErrorIs(t, r.RunUntilTime(context.Background(), 1), errBroken)
	})

	t.Run("cancellation ends the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := runner.NewHeadless(ecs.NewEngine(), 0.1)
		assert.ErrorIs(t, r.RunUntilTime(ctx, 1), context.Canceled)
	})

	t.Run("close terminates the engine", func(t *testing.T) {
		engine := ecs.NewEngine()
		r := runner.NewHeadless(engine, 0.1)
		require.NoError(t, r.Close())
		assert.True(t, engine.Terminated())
		assert.ErrorIs(t, r.Start(context.Background()), ecs.ErrTerminated)
	})
}

func TestControl(t *testing.T) {
	engine := ecs.NewEngine()
	system := &countingSystem{}
	engine.AddSystem(system)
	r := runner.NewHeadless(engine, 0.01)

	require.NoError(t, r.Start(context.Background()))
	var out bytes.Buffer
	r.Control(context.Background(), strings.NewReader("p\np\nq\n"), &out)

	assert.False(t, r.Started())
	assert.False(t, r.Paused())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "execution paused at t="))
	assert.Equal(t, "execution resumed", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "execution aborted at t="))
}
