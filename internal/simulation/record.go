package simulation

import (
	"pedsim/internal/geometry"
	"pedsim/internal/wire"
)

// Record is one tick's persisted output (§6 "Persisted outputs"):
// every living agent's trajectory plus any door crossings detected this
// tick. Records() delivers one Record per completed Iterate call.
type Record struct {
	Tick         uint64
	Trajectories []wire.TrajectoryRecord
	DoorFlows    []wire.DoorFlowRecord
}

// Records returns the channel of per-tick records. It is buffered; a slow
// consumer causes Iterate to drop (and log) a tick's record rather than
// block the hot path.
func (s *Simulation) Records() <-chan Record {
	return s.records
}

// Summary is the run's egress-time and door-usage statistics (§6), built on
// request from the recorded removal history and each transition's
// cumulative usage counter.
type Summary struct {
	// EgressTimeByRoom maps the room an agent was inserted into to the
	// list of egress times (elapsed time from insertion to removal) of
	// every agent that started there and has since been removed.
	EgressTimeByRoom map[int][]float64
	// TransitionUsage maps each transition to its cumulative crossing
	// count, read directly off the geometry (building.Transitions()).
	TransitionUsage map[geometry.TransitionID]int
}

// Summary computes the run's summary statistics as of the last completed
// tick.
func (s *Simulation) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	byRoom := make(map[int][]float64, len(s.removals))
	for _, r := range s.removals {
		byRoom[r.room] = append(byRoom[r.room], r.egressTime)
	}

	usage := make(map[geometry.TransitionID]int, len(s.building.Transitions()))
	for id, t := range s.building.Transitions() {
		usage[id] = t.Usage
	}

	return Summary{EgressTimeByRoom: byRoom, TransitionUsage: usage}
}

// RemovedAgentsInLastIteration returns the agent ids removed during the
// most recently completed tick (§4.I step 4).
func (s *Simulation) RemovedAgentsInLastIteration() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.removedThisTick))
	copy(out, s.removedThisTick)
	return out
}
