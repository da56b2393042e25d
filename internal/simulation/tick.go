package simulation

import (
	"context"
	"math"
	"strconv"
	"time"

	"pedsim/internal/geometry"
	"pedsim/internal/model"
	"pedsim/internal/neighbor"
	"pedsim/internal/telemetry"
	"pedsim/internal/wire"
)

// Iterate advances the simulation by one tick, in the strict order of
// §4.I: apply due events, rebuild the neighbor index, run the three
// decision passes (gated by minPremovementTime), remove exited/out-of-
// bounds agents, update door-flow counters, then advance the clock.
//
// A fatal error from the operational model aborts the tick: per §5, there
// is no partial rollback, but position writes are staged so a failing
// agent never leaves some agents moved and others not.
func (s *Simulation) Iterate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	elapsed := s.clk.ElapsedTime()

	for _, err := range s.events.Apply(elapsed, s.building, s.router) {
		s.log.Warn(context.TODO(), "event application failed", telemetry.String("error", err.Error()))
	}
	s.router.RebuildIfNeeded()

	pts := make([]neighbor.Point, 0, len(s.agents))
	prePositions := make(map[int]geometry.Point, len(s.agents))
	for id, a := range s.agents {
		pts = append(pts, agentPoint{a})
		prePositions[id] = a.Pos
	}
	s.grid.Rebuild(pts)

	s.removedThisTick = s.removedThisTick[:0]

	if elapsed > s.minPremovementTime {
		for _, a := range s.agents {
			s.strategicStep(a)
		}
		for _, a := range s.agents {
			s.tacticalStep(a)
		}

		newStates := make(map[int]model.Output, len(s.agents))
		for id, a := range s.agents {
			in, err := s.buildModelInput(a, elapsed)
			if err != nil {
				return err
			}
			out, err := s.opModel.Step(in, s.profiles[a.ProfileID])
			if err != nil {
				return err
			}
			newStates[id] = out
		}
		for id, out := range newStates {
			a := s.agents[id]
			a.Pos = out.Pos
			a.Speed = out.Speed
			a.Orientation = out.Orientation
			a.E0 = out.E0
		}
	}

	for id, a := range s.agents {
		if _, _, ok := s.building.GetRoomAndSubRoom(a.Pos); !ok {
			s.removedThisTick = append(s.removedThisTick, id)
		}
	}
	s.removeDueAgents(elapsed)

	doorFlows := s.detectDoorCrossings(prePositions, elapsed)

	trajectories := make([]wire.TrajectoryRecord, 0, len(s.agents))
	for id, a := range s.agents {
		trajectories = append(trajectories, wire.TrajectoryRecord{
			Tick:        s.clk.Iteration(),
			AgentID:     int32(id),
			X:           a.Pos.X,
			Y:           a.Pos.Y,
			Orientation: math.Atan2(a.Orientation.Y, a.Orientation.X),
			Speed:       a.Speed,
		})
	}

	rec := Record{Tick: s.clk.Iteration(), Trajectories: trajectories, DoorFlows: doorFlows}
	select {
	case s.records <- rec:
	default:
		s.log.Warn(context.TODO(), "records channel full, dropping tick record",
			telemetry.Int("tick", int(s.clk.Iteration())))
	}

	if s.metrics != nil {
		s.metrics.ObserveTick(time.Since(start).Seconds())
		s.metrics.SetLiveAgents(len(s.agents))
	}

	s.clk.Advance()
	return nil
}

// removeDueAgents deletes every agent named in s.removedThisTick (Exit
// completions plus out-of-bounds detections, possibly overlapping),
// folding each into the egress-time history read by Summary.
func (s *Simulation) removeDueAgents(elapsed float64) {
	seen := make(map[int]bool, len(s.removedThisTick))
	dedup := s.removedThisTick[:0]
	for _, id := range s.removedThisTick {
		if seen[id] {
			continue
		}
		seen[id] = true
		dedup = append(dedup, id)
	}
	s.removedThisTick = dedup

	for _, id := range s.removedThisTick {
		a, ok := s.agents[id]
		if !ok {
			continue
		}
		meta := s.meta[id]
		s.removals = append(s.removals, removal{room: meta.room, egressTime: elapsed - meta.insertedAt})
		s.releaseStageSlot(a)
		delete(s.agents, id)
		delete(s.meta, id)
	}
	if s.metrics != nil && len(s.removedThisTick) > 0 {
		s.metrics.IncRemoved(len(s.removedThisTick))
	}
}

// detectDoorCrossings compares each surviving agent's pre-tick position
// against its post-tick position and flags a crossing wherever that
// movement segment intersects a transition line (§4.I step 5), resolving
// Open Question (a) in favor of incrementing usage at the moment of
// crossing rather than at removal.
func (s *Simulation) detectDoorCrossings(prePositions map[int]geometry.Point, elapsed float64) []wire.DoorFlowRecord {
	if len(prePositions) == 0 {
		return nil
	}
	transitions, _ := s.building.AllTransitionsAndCrossings()

	var doorFlows []wire.DoorFlowRecord
	for id, before := range prePositions {
		a, ok := s.agents[id]
		if !ok {
			continue
		}
		after := a.Pos
		if before == after {
			continue
		}
		movement := geometry.NewSegment(before, after)
		for _, t := range transitions {
			if !movement.Intersects(t.Line) {
				continue
			}
			t.Usage++
			t.LastPassing = elapsed
			rec := wire.DoorFlowRecord{
				Tick:            s.clk.Iteration(),
				TransitionID:    int32(t.ID),
				CumulativeCount: uint64(t.Usage),
				CrossingAgentID: int32(id),
			}
			doorFlows = append(doorFlows, rec)
			s.doorFlowHistory = append(s.doorFlowHistory, rec)
			if s.metrics != nil {
				s.metrics.IncDoorCrossing(strconv.Itoa(int(t.ID)))
			}
		}
	}
	return doorFlows
}
