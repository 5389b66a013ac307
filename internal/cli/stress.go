package cli

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/internal/sim"
	"github.com/plus3/aco/runner"
)

// StressOptions holds flags for the stress command.
type StressOptions struct {
	*RootOptions
	Duration       time.Duration
	Entities       int
	Seed           int64
	Profile        string
	ProfilePath    string
	GCPauseMetrics bool
}

// NewStressCommand creates the stress command.
func NewStressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StressOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Stress the engine with a churning entity population",
		Long: `Run a synthetic workload as fast as possible for a fixed wall clock
duration and print a performance report.

Entities age, die and respawn every step, and a sample of them is tagged and
untagged periodically, so every step exercises deferred entity and component
changes as well as family membership updates.

Example:
  aco stress --duration 5s --entities 50000
  aco stress --profile cpu --profile-path ./prof`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Duration, "duration", 10*time.Second, "the total duration the test should run for")
	cmd.Flags().IntVar(&opts.Entities, "entities", 10000, "the number of live entities")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "seed for the workload's random numbers")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "record a profile (cpu|mem|allocs|block|mutex|trace)")
	cmd.Flags().StringVar(&opts.ProfilePath, "profile-path", ".", "directory profiles are written to")
	cmd.Flags().BoolVar(&opts.GCPauseMetrics, "gc-pause-metrics", false, "include GC pause metrics in the report")

	return cmd
}

func profileMode(name string) (func(*profile.Profile), error) {
	switch name {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "allocs":
		return profile.MemProfileAllocs, nil
	case "block":
		return profile.BlockProfile, nil
	case "mutex":
		return profile.MutexProfile, nil
	case "trace":
		return profile.TraceProfile, nil
	}
	return nil, NewExitError(ExitCommandError, "unknown profile mode "+name)
}

func runStress(opts *StressOptions, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())

	if opts.Entities <= 0 {
		return NewExitError(ExitCommandError, "--entities must be positive")
	}
	if opts.Profile != "" {
		mode, err := profileMode(opts.Profile)
		if err != nil {
			return err
		}
		defer profile.Start(mode, profile.ProfilePath(opts.ProfilePath), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	slog.Info("populating engine", "entities", opts.Entities, "seed", opts.Seed)
	engine, err := sim.NewStressEngine(opts.Entities, opts.Seed, ecs.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to populate engine", err)
	}
	defer func() {
		if err := engine.Terminate(); err != nil {
			slog.Error("error terminating engine", "error", err)
		}
	}()

	report := &StressReport{
		Duration:       opts.Duration,
		Entities:       opts.Entities,
		Seed:           opts.Seed,
		Systems:        len(engine.Systems()),
		GCPauseMetrics: opts.GCPauseMetrics,
	}

	last := time.Now()
	r := runner.New(engine,
		runner.WithRealTimeTarget(false),
		runner.WithLogger(logger),
		runner.WithCallback(func(*ecs.Engine) {
			now := time.Now()
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, now.Sub(last))
			last = now
		}))

	runtime.ReadMemStats(&report.MemStatsStart)

	slog.Info("running stress test", "duration", opts.Duration)
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Duration)
	defer cancel()

	last = time.Now()
	if err := r.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to start runner", err)
	}
	if err := r.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "stress test failed", err)
	}

	runtime.ReadMemStats(&report.MemStatsEnd)
	report.Run = r.Stats()
	report.UpdateTime.Finalize()
	report.SystemStats = engine.Stats().Systems

	slog.Info("stress test complete", "steps", report.Run.Steps)
	if err := report.Generate(cmd.OutOrStdout()); err != nil {
		return WrapExitError(ExitFailure, "failed to generate report", err)
	}
	return nil
}
