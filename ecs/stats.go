package ecs

import "time"

// EngineStats describes the execution history of an engine.
type EngineStats struct {
	SystemCount     int
	EntityCount     int
	Steps           int64
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newSystemStats(s System) *systemStatsInternal {
	return &systemStatsInternal{
		name:        systemName(s),
		minDuration: time.Duration(1<<63 - 1),
	}
}

func (st *systemStatsInternal) record(duration time.Duration) {
	st.executionCount++
	st.lastDuration = duration
	st.totalDuration += duration

	if duration < st.minDuration {
		st.minDuration = duration
	}
	if duration > st.maxDuration {
		st.maxDuration = duration
	}
}

func (st *systemStatsInternal) snapshot() SystemStats {
	avgDuration := time.Duration(0)
	minDuration := st.minDuration
	if st.executionCount > 0 {
		avgDuration = st.totalDuration / time.Duration(st.executionCount)
	} else {
		minDuration = 0
	}

	return SystemStats{
		Name:           st.name,
		ExecutionCount: st.executionCount,
		MinDuration:    minDuration,
		MaxDuration:    st.maxDuration,
		AvgDuration:    avgDuration,
		LastDuration:   st.lastDuration,
		TotalDuration:  st.totalDuration,
	}
}
