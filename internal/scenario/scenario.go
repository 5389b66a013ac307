// Package scenario loads simulation scenarios from YAML and builds engines from them.
package scenario

import (
	"bytes"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/plus3/aco/components"
	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/internal/sim"
)

// Scenario describes a simulation run.
type Scenario struct {
	// Name identifies the scenario in reports.
	Name string `yaml:"name"`

	// StartTime is the initial simulation time in seconds.
	StartTime float64 `yaml:"start_time,omitempty"`

	// RealtimeFactor scales every step. Defaults to 1.
	RealtimeFactor float64 `yaml:"realtime_factor,omitempty"`

	// Step is the fixed step size in seconds. Defaults to 0.01.
	Step float64 `yaml:"step,omitempty"`

	// Until is the simulation time at which the run ends.
	Until float64 `yaml:"until"`

	// Realtime paces the run against the wall clock.
	Realtime bool `yaml:"realtime,omitempty"`

	// TargetRTF is the desired real-time factor when Realtime is set. Defaults to 1.
	TargetRTF float64 `yaml:"target_rtf,omitempty"`

	Systems Systems `yaml:"systems"`

	Entities []Entity `yaml:"entities"`
}

// Systems selects the systems of a scenario. Absent entries are not registered.
type Systems struct {
	SineMover *SineMoverSystem `yaml:"sine_mover,omitempty"`
	Movement  *MovementSystem  `yaml:"movement,omitempty"`
}

type SineMoverSystem struct {
	// Interval defaults to 0.1.
	Interval float64 `yaml:"interval,omitempty"`
	Priority int     `yaml:"priority,omitempty"`
}

type MovementSystem struct {
	Priority int `yaml:"priority,omitempty"`
}

// Entity describes an initial entity. Vectors are [x, y, z].
type Entity struct {
	Name      string     `yaml:"name,omitempty"`
	Position  []float64  `yaml:"position,omitempty"`
	Velocity  []float64  `yaml:"velocity,omitempty"`
	SineMover *SineMover `yaml:"sine_mover,omitempty"`
}

type SineMover struct {
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Phase     float64 `yaml:"phase,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read scenario file")
	}
	return Parse(data)
}

// Parse decodes a scenario, rejecting unknown fields, fills in defaults and
// validates the result.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, eris.Wrap(err, "failed to parse YAML")
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid scenario")
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.RealtimeFactor == 0 {
		s.RealtimeFactor = 1
	}
	if s.Step == 0 {
		s.Step = 0.01
	}
	if s.TargetRTF == 0 {
		s.TargetRTF = 1
	}
	if s.Systems.SineMover != nil && s.Systems.SineMover.Interval == 0 {
		s.Systems.SineMover.Interval = 0.1
	}
}

// Validate checks that the scenario can be run.
func (s *Scenario) Validate() error {
	switch {
	case s.Name == "":
		return eris.New("name is required")
	case s.Step <= 0:
		return eris.Errorf("step must be positive, got %g", s.Step)
	case s.RealtimeFactor <= 0:
		return eris.Errorf("realtime_factor must be positive, got %g", s.RealtimeFactor)
	case s.TargetRTF <= 0:
		return eris.Errorf("target_rtf must be positive, got %g", s.TargetRTF)
	case s.Until <= s.StartTime:
		return eris.Errorf("until (%g) must be after start_time (%g)", s.Until, s.StartTime)
	case s.Systems.SineMover != nil && s.Systems.SineMover.Interval <= 0:
		return eris.Errorf("sine_mover interval must be positive, got %g", s.Systems.SineMover.Interval)
	}
	for i, e := range s.Entities {
		if e.Position != nil && len(e.Position) != 3 {
			return eris.Errorf("entity %d: position needs 3 values, got %d", i, len(e.Position))
		}
		if e.Velocity != nil && len(e.Velocity) != 3 {
			return eris.Errorf("entity %d: velocity needs 3 values, got %d", i, len(e.Velocity))
		}
		if e.SineMover != nil && e.Position == nil {
			return eris.Errorf("entity %d: sine_mover needs a position", i)
		}
	}
	return nil
}

// Build creates an engine holding the scenario's systems and entities.
func (s *Scenario) Build(opts ...ecs.Option) (*ecs.Engine, error) {
	opts = append([]ecs.Option{
		ecs.WithStartTime(s.StartTime),
		ecs.WithRealtimeFactor(s.RealtimeFactor),
	}, opts...)
	engine := ecs.NewEngine(opts...)

	if cfg := s.Systems.SineMover; cfg != nil {
		engine.AddSystem(sim.NewSineMoverSystem(cfg.Interval, cfg.Priority))
	}
	if cfg := s.Systems.Movement; cfg != nil {
		engine.AddSystem(sim.NewMovementSystem(cfg.Priority))
	}

	for i, desc := range s.Entities {
		if err := engine.AddEntity(desc.newEntity()); err != nil {
			return nil, eris.Wrapf(err, "entity %d", i)
		}
	}
	return engine, nil
}

func (d Entity) newEntity() *ecs.Entity {
	e := ecs.NewEntity()
	if d.Name != "" {
		e.Add(components.NewName(d.Name))
	}
	if p := d.Position; p != nil {
		e.Add(&sim.Position{X: p[0], Y: p[1], Z: p[2]})
	}
	if v := d.Velocity; v != nil {
		e.Add(&sim.Velocity{X: v[0], Y: v[1], Z: v[2]})
	}
	if m := d.SineMover; m != nil {
		e.Add(&sim.SineMover{Amplitude: m.Amplitude, Frequency: m.Frequency, Phase: m.Phase})
	}
	return e
}
