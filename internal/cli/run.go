package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/internal/scenario"
	"github.com/plus3/aco/runner"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Until       float64
	Step        float64
	Realtime    bool
	TargetRTF   float64
	Interactive bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a simulation scenario",
		Long: `Run the simulation described by a YAML scenario file and print a report.

Flags override the matching scenario settings. With --interactive, commands are
read from stdin while the simulation runs: "p" toggles pause, "q" aborts.

Example:
  aco run ./scenarios/sine.yaml
  aco run --realtime --target-rtf 2 --interactive ./scenarios/sine.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Until, "until", 0, "simulation time to stop at")
	cmd.Flags().Float64Var(&opts.Step, "step", 0, "fixed step size in seconds")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "pace the simulation against the wall clock")
	cmd.Flags().Float64Var(&opts.TargetRTF, "target-rtf", 0, "target real-time factor when pacing")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "read pause/quit commands from stdin")

	return cmd
}

func (o *RunOptions) apply(cmd *cobra.Command, s *scenario.Scenario) error {
	flags := cmd.Flags()
	if flags.Changed("until") {
		s.Until = o.Until
	}
	if flags.Changed("step") {
		s.Step = o.Step
	}
	if flags.Changed("realtime") {
		s.Realtime = o.Realtime
	}
	if flags.Changed("target-rtf") {
		s.TargetRTF = o.TargetRTF
	}
	return s.Validate()
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())

	s, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if err := opts.apply(cmd, s); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	engine, err := s.Build(ecs.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build scenario", err)
	}
	defer func() {
		if err := engine.Terminate(); err != nil {
			slog.Error("error terminating engine", "error", err)
		}
	}()
	slog.Info("scenario loaded",
		"name", s.Name,
		"entities", engine.Entities().Len(),
		"systems", len(engine.Systems()))

	r := runner.NewHeadless(engine, s.Step,
		runner.WithRealTimeTarget(s.Realtime),
		runner.WithTargetRealTimeFactor(s.TargetRTF),
		runner.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reached := runner.UntilTime(s.Until)
	if err := r.StartUntil(ctx, reached); err != nil {
		return WrapExitError(ExitFailure, "failed to start runner", err)
	}

	controlCtx, cancelControl := context.WithCancel(ctx)
	controlDone := make(chan struct{})
	go func() {
		defer close(controlDone)
		if opts.Interactive {
			r.Control(controlCtx, cmd.InOrStdin(), cmd.OutOrStdout())
		}
	}()

	err = r.Wait()
	cancelControl()
	<-controlDone

	aborted := !reached(engine)
	switch {
	case errors.Is(err, context.Canceled):
		slog.Warn("run interrupted", "time", engine.CurrentTime())
	case err != nil:
		return WrapExitError(ExitFailure, "simulation failed", err)
	}

	report := newRunReport(s.Name, engine, r.Stats())
	report.Aborted = aborted
	if err := report.Generate(cmd.OutOrStdout()); err != nil {
		return WrapExitError(ExitFailure, "failed to generate report", err)
	}
	return nil
}
