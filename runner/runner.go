// Package runner drives an ecs.Engine on its own goroutine, either paced
// against the wall clock or as fast as possible with a fixed step.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"

	"github.com/plus3/aco/ecs"
)

var (
	// ErrAlreadyStarted is returned when starting a runner that is running.
	ErrAlreadyStarted = eris.New("runner already started")

	errStopped = errors.New("runner stopped")
)

const (
	pausePoll     = time.Millisecond
	timeTolerance = 1e-9
)

// EngineRunner drives an engine in the background.
type EngineRunner interface {
	Start(ctx context.Context) error
	Stop() error
}

// Predicate reports whether a run should end.
type Predicate func(engine *ecs.Engine) bool

// Stats describes the progress of the current or last run.
type Stats struct {
	Steps int64
	// Time is the engine clock after the last step.
	Time float64
	// SimulationClock is the simulated time covered by the run, in seconds.
	SimulationClock float64
	// WallClock is the unpaused wall time the run took, in seconds.
	WallClock            float64
	ActualRealTimeFactor float64
}

// Runner steps an engine in a loop until stopped, cancelled or a predicate
// holds. Pause, target real-time factor and real-time pacing may be changed
// from any goroutine while it runs; the engine itself must only be touched by
// the runner while a run is in progress.
type Runner struct {
	engine    *ecs.Engine
	logger    *slog.Logger
	fixedStep float64
	callback  func(engine *ecs.Engine)

	paused         atomic.Bool
	realTimeTarget atomic.Bool
	targetRTF      atomic.Uint64

	mu      sync.Mutex
	running bool
	cancel  context.CancelCauseFunc
	done    chan struct{}
	err     error
	stats   Stats
}

var _ EngineRunner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithFixedStep steps the engine by dt on every iteration instead of by the
// elapsed wall time.
func WithFixedStep(dt float64) Option {
	return func(r *Runner) {
		r.fixedStep = dt
	}
}

// WithRealTimeTarget enables or disables pacing against the wall clock.
func WithRealTimeTarget(enabled bool) Option {
	return func(r *Runner) {
		r.realTimeTarget.Store(enabled)
	}
}

// WithTargetRealTimeFactor sets the desired ratio of simulated to wall time.
func WithTargetRealTimeFactor(factor float64) Option {
	return func(r *Runner) {
		r.SetTargetRealTimeFactor(factor)
	}
}

// WithCallback runs fn on the runner goroutine after every step. fn may end
// the run with Abort but must not call Stop or Wait, which would wait for fn
// itself.
func WithCallback(fn func(engine *ecs.Engine)) Option {
	return func(r *Runner) {
		r.callback = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a runner that paces engine at real time by default.
func New(engine *ecs.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		logger: slog.Default(),
	}
	r.realTimeTarget.Store(true)
	r.SetTargetRealTimeFactor(1)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewHeadless creates a runner that steps engine by dt as fast as possible.
func NewHeadless(engine *ecs.Engine, dt float64, opts ...Option) *Runner {
	return New(engine, append([]Option{WithFixedStep(dt), WithRealTimeTarget(false)}, opts...)...)
}

func (r *Runner) Engine() *ecs.Engine {
	return r.engine
}

// Start begins stepping in the background until Stop or ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	return r.start(ctx, nil)
}

// StartUntil begins stepping in the background until done reports true, Stop
// is called or ctx is done.
func (r *Runner) StartUntil(ctx context.Context, done Predicate) error {
	return r.start(ctx, done)
}

// RunUntil steps until done reports true, then returns. It blocks.
func (r *Runner) RunUntil(ctx context.Context, done Predicate) error {
	if err := r.start(ctx, done); err != nil {
		return err
	}
	return r.Wait()
}

// RunWhile steps for as long as cond reports true. It blocks.
func (r *Runner) RunWhile(ctx context.Context, cond Predicate) error {
	return r.RunUntil(ctx, func(engine *ecs.Engine) bool {
		return !cond(engine)
	})
}

// RunUntilTime steps until the engine clock reaches t.
func (r *Runner) RunUntilTime(ctx context.Context, t float64) error {
	return r.RunUntil(ctx, UntilTime(t))
}

// UntilTime holds once the engine clock has reached t, allowing for the
// rounding error accumulated by summing step sizes.
func UntilTime(t float64) Predicate {
	tolerance := timeTolerance * max(1, math.Abs(t))
	return func(engine *ecs.Engine) bool {
		return engine.CurrentTime() >= t-tolerance
	}
}

// RunFor steps until d more seconds have been simulated.
func (r *Runner) RunFor(ctx context.Context, d float64) error {
	return r.RunUntilTime(ctx, r.engine.CurrentTime()+d)
}

// Wait blocks until the current run ends and returns its error.
func (r *Runner) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stop ends the current run and waits for it. Stopping a runner that is not
// running does nothing. Stop must not be called from a callback; use Abort.
func (r *Runner) Stop() error {
	r.Abort()
	return r.Wait()
}

// Abort asks the current run to end after the step in progress and returns
// without waiting for it.
func (r *Runner) Abort() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel(errStopped)
	}
}

// Close stops the runner and terminates its engine.
func (r *Runner) Close() error {
	return errors.Join(r.Stop(), r.engine.Terminate())
}

// Started reports whether a run is in progress.
func (r *Runner) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) Pause() {
	r.paused.Store(true)
}

func (r *Runner) Resume() {
	r.paused.Store(false)
}

func (r *Runner) Paused() bool {
	return r.paused.Load()
}

// TogglePause flips the pause state and reports whether the runner is now paused.
func (r *Runner) TogglePause() bool {
	for {
		old := r.paused.Load()
		if r.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// SetTargetRealTimeFactor sets the desired ratio of simulated to wall time.
// Non-positive factors disable pacing until a positive factor is set.
func (r *Runner) SetTargetRealTimeFactor(factor float64) {
	r.targetRTF.Store(math.Float64bits(factor))
}

func (r *Runner) TargetRealTimeFactor() float64 {
	return math.Float64frombits(r.targetRTF.Load())
}

func (r *Runner) EnableRealTimeTarget(enabled bool) {
	r.realTimeTarget.Store(enabled)
}

func (r *Runner) RealTimeTargetEnabled() bool {
	return r.realTimeTarget.Load()
}

// Stats returns the progress of the current or last run.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Runner) start(ctx context.Context, until Predicate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return eris.Wrap(ErrAlreadyStarted, "start")
	}
	if r.engine.Terminated() {
		return eris.Wrap(ecs.ErrTerminated, "start")
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	r.running = true
	r.cancel = cancel
	r.done = done
	r.err = nil
	r.stats = Stats{Time: r.engine.CurrentTime()}

	go func() {
		err := r.loop(runCtx, until)
		cancel(errStopped)

		r.mu.Lock()
		r.err = err
		r.running = false
		r.cancel = nil
		stats := r.stats
		r.mu.Unlock()
		close(done)

		r.logger.Debug("runner finished",
			"steps", stats.Steps,
			"time", stats.Time,
			"rtf", stats.ActualRealTimeFactor,
			"error", err)
	}()
	return nil
}

func (r *Runner) loop(ctx context.Context, until Predicate) error {
	start := time.Now()
	last := start
	simStart := r.engine.CurrentTime()
	var paused time.Duration

	for {
		if err := context.Cause(ctx); err != nil {
			if errors.Is(err, errStopped) {
				return nil
			}
			return ctx.Err()
		}
		if until != nil && until(r.engine) {
			return nil
		}

		if r.paused.Load() {
			t0 := time.Now()
			sleep(ctx, pausePoll)
			paused += time.Since(t0)
			last = time.Now()
			continue
		}

		now := time.Now()
		dt := r.fixedStep
		if dt <= 0 {
			dt = now.Sub(last).Seconds()
		}
		last = now

		if err := r.engine.Step(dt); err != nil {
			return err
		}

		sim := r.engine.CurrentTime() - simStart
		wall := (time.Since(start) - paused).Seconds()
		r.record(sim, wall)

		if target := r.TargetRealTimeFactor(); r.realTimeTarget.Load() && target > 0 {
			if diff := sim/target - wall; diff > 0 {
				sleep(ctx, time.Duration(diff*float64(time.Second)))
			}
		}

		if r.callback != nil {
			r.callback(r.engine)
		}
	}
}

func (r *Runner) record(sim, wall float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Steps++
	r.stats.Time = r.engine.CurrentTime()
	r.stats.SimulationClock = sim
	r.stats.WallClock = wall
	if wall > 0 {
		r.stats.ActualRealTimeFactor = sim / wall
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
