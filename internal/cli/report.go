package cli

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/aco/components"
	"github.com/plus3/aco/ecs"
	"github.com/plus3/aco/internal/sim"
	"github.com/plus3/aco/runner"
)

// RunReport summarises a scenario run.
type RunReport struct {
	Scenario string
	Aborted  bool
	Run      runner.Stats
	Entities []EntityState
	Systems  []ecs.SystemStats
}

// EntityState is the final position of a named entity.
type EntityState struct {
	Name    string
	X, Y, Z float64
}

func newRunReport(name string, engine *ecs.Engine, stats runner.Stats) *RunReport {
	report := &RunReport{
		Scenario: name,
		Run:      stats,
		Systems:  engine.Stats().Systems,
	}
	for e := range engine.Entities().All() {
		p := ecs.Get[sim.Position](e)
		if p == nil {
			continue
		}
		label := components.NameOf(e)
		if label == "" {
			label = e.String()
		}
		report.Entities = append(report.Entities, EntityState{Name: label, X: p.X, Y: p.Y, Z: p.Z})
	}
	return report
}

const runReportTemplate = `# Scenario Report: {{.Scenario}}

## Run
- **Steps:** {{.Run.Steps}}
- **Simulation Time:** {{f3 .Run.Time}}
- **Wall Clock:** {{f3 .Run.WallClock}}s
- **Real-Time Factor:** {{f2 .Run.ActualRealTimeFactor}}
{{- if .Aborted}}
- **Aborted:** yes
{{- end}}

## Entities
{{range .Entities}}- {{.Name}}: ({{f4 .X}}, {{f4 .Y}}, {{f4 .Z}})
{{end}}
## Systems
{{range .Systems}}- {{.Name}}: {{.ExecutionCount}} runs, avg {{.AvgDuration}}, min {{.MinDuration}}, max {{.MaxDuration}}
{{end}}`

func (r *RunReport) Generate(w io.Writer) error {
	return render(w, "run", runReportTemplate, r)
}

// StressReport summarises a stress test.
type StressReport struct {
	// Configuration
	Duration time.Duration
	Entities int
	Seed     int64
	Systems  int

	// Results
	Run            runner.Stats
	UpdateTime     FrameStats
	SystemStats    []ecs.SystemStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// FrameStats aggregates per frame durations.
type FrameStats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *FrameStats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

const stressReportTemplate = `# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Seed:** {{.Seed}}
- **Systems:** {{.Systems}}

## Performance Results
- **Total Steps:** {{.Run.Steps}}
- **Simulated Time:** {{f3 .Run.SimulationClock}}s
- **Wall Clock:** {{f3 .Run.WallClock}}s
- **Step Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Systems
{{range .SystemStats}}- {{.Name}}: {{.ExecutionCount}} runs, avg {{.AvgDuration}}, max {{.MaxDuration}}, total {{.TotalDuration}}
{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{- if .GCPauseMetrics}}

## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{- end}}
`

func (r *StressReport) Generate(w io.Writer) error {
	return render(w, "stress", stressReportTemplate, r)
}

var reportFuncs = template.FuncMap{
	"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"f3": func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"f4": func(v float64) string { return fmt.Sprintf("%.4f", v) },
	"bsub": func(a, b uint64) int64 {
		return int64(a) - int64(b)
	},
	"usub": func(a, b uint32) uint32 {
		return a - b
	},
	"ns": func(ns uint64) string {
		return time.Duration(ns).String()
	},
}

func render(w io.Writer, name, text string, data any) error {
	tmpl, err := template.New(name).Funcs(reportFuncs).Parse(text)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, data)
}
