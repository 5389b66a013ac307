// Package sim holds the components and systems the aco command runs.
package sim

// Position is a point in world space.
type Position struct {
	X, Y, Z float64
}

// Velocity is a rate of change of Position per simulated second.
type Velocity struct {
	X, Y, Z float64
}

// SineMover drives Position.Y along A·sin(2π·f·t + φ).
type SineMover struct {
	Amplitude float64
	Frequency float64
	Phase     float64
}

// Lifetime counts down the simulated seconds an entity has left.
type Lifetime struct {
	Remaining float64
}

// Marked tags entities picked by the MarkerSystem.
type Marked struct{}
