package simulation

import (
	"context"
	"fmt"

	"pedsim/internal/agent"
	"pedsim/internal/geometry"
	"pedsim/internal/model"
	"pedsim/internal/routing"
	"pedsim/internal/simerr"
	"pedsim/internal/stage"
	"pedsim/internal/telemetry"
)

// tooCloseToWallFactor gates the rate-limited warning (§7): an agent whose
// distance to the nearest wall drops below this multiple of its own body
// radius is logged, not a hard error.
const tooCloseToWallFactor = 1.5

// strategicStep advances a's stage if its current stage's completion
// predicate is satisfied, per §4.F / §4.G.
func (s *Simulation) strategicStep(a *agent.Agent) {
	journey, ok := s.journeys[stage.JourneyID(a.JourneyID)]
	if !ok {
		return
	}
	st, ok := journey.Stage(stage.ID(a.StageID))
	if !ok {
		return
	}
	if !st.Completed(int(a.ID), a.Pos) {
		return
	}
	next, ok := journey.NextStage(stage.ID(a.StageID))
	if !ok {
		return
	}
	s.releaseStageSlot(a)
	a.StageID = int(next)
	a.HasNavLine = false
	a.Waiting = false
}

// tacticalStep sets a's navigation line by resolving its current stage's
// target point through the router, admitting it to a WaitingSet/Queue
// stage if that's what it now occupies (§4.G).
func (s *Simulation) tacticalStep(a *agent.Agent) {
	journey, ok := s.journeys[stage.JourneyID(a.JourneyID)]
	if !ok {
		return
	}
	st, ok := journey.Stage(stage.ID(a.StageID))
	if !ok {
		return
	}
	switch w := st.(type) {
	case *stage.WaitingSet:
		w.Enter(int(a.ID))
	case *stage.Queue:
		w.Enter(int(a.ID))
	}

	_, curSub, ok := s.building.GetRoomAndSubRoom(a.Pos)
	if !ok {
		// Out of bounds; the tick's post-op removal check will catch
		// this agent. Nothing useful to route toward.
		return
	}

	target := st.TargetPoint()
	var resolution routing.Resolution
	if _, targetSub, ok := s.building.GetRoomAndSubRoom(target); ok {
		resolution = s.router.Resolve(a.Pos, curSub, targetSub, target)
	} else {
		resolution = routing.Resolution{NavLine: geometry.NewSegment(target, target)}
	}
	a.NavLine = resolution.NavLine
	a.HasNavLine = true
	a.Waiting = resolution.Waiting
}

// buildModelInput assembles the operational model's Input for a from the
// current (pre-tick) snapshot: neighbors filtered to the same subroom or a
// directly connected and visible one (§4.D step 2), and the walls of its
// current subroom plus any non-open transition lines.
func (s *Simulation) buildModelInput(a *agent.Agent, elapsed float64) (model.Input, error) {
	_, subID, ok := s.building.GetRoomAndSubRoom(a.Pos)
	if !ok {
		return model.Input{}, simerr.NewInvariantViolation("agent %d is outside the geometry", a.ID)
	}
	subroom, ok := s.building.SubRoom(subID)
	if !ok {
		return model.Input{}, simerr.NewInvariantViolation("agent %d's subroom %d is missing", a.ID, subID)
	}

	candidates := s.grid.Neighbours(a.Pos, s.distEffMaxPed)
	neighbors := make([]model.Neighbor, 0, len(candidates))
	for _, c := range candidates {
		if c.ID() == int(a.ID) {
			continue
		}
		other, ok := s.agents[c.ID()]
		if !ok {
			continue
		}
		_, otherSub, ok := s.building.GetRoomAndSubRoom(other.Pos)
		if !ok {
			continue
		}
		sameSub := otherSub == subID
		connected := !sameSub && s.building.IsDirectlyConnected(subID, otherSub) && s.building.IsVisible(a.Pos, other.Pos, subroom)
		if !sameSub && !connected {
			continue
		}
		neighbors = append(neighbors, model.Neighbor{Pos: other.Pos, BMax: s.profiles[other.ProfileID].BMax})
	}

	walls := subroom.AllWallSegments()
	for _, t := range subroom.Transitions {
		if !t.IsOpen() {
			walls = append(walls, t.Line)
		}
	}

	profile := s.profiles[a.ProfileID]
	s.warnIfTooCloseToWall(a, walls, profile)

	return model.Input{
		Pos:             a.Pos,
		Orientation:     a.Orientation,
		LastE0:          a.E0,
		ProfileID:       a.ProfileID,
		Neighbors:       neighbors,
		Walls:           walls,
		SubroomCentroid: subroom.Centroid(),
		InsideSubroom:   subroom.Contains(a.Pos),
		NavLine:         a.NavLine,
		Strategy:        s.router.Strategy(),
		Waiting:         a.Waiting,
		InPremovement:   a.InPremovement(elapsed),
		DT:              s.clk.DT(),
	}, nil
}

// warnIfTooCloseToWall emits a rate-limited warning (§7) when an agent's
// distance to its nearest wall drops below a multiple of its own body
// radius; this is advisory only and never blocks the tick.
func (s *Simulation) warnIfTooCloseToWall(a *agent.Agent, walls []geometry.Segment, profile agent.Profile) {
	if len(walls) == 0 {
		return
	}
	minDist := walls[0].DistTo(a.Pos)
	for _, w := range walls[1:] {
		if d := w.DistTo(a.Pos); d < minDist {
			minDist = d
		}
	}
	if minDist >= profile.BMax*tooCloseToWallFactor {
		return
	}
	key := fmt.Sprintf("wall-proximity:%d", a.ID)
	if !s.warnRate.Allow(key) {
		return
	}
	s.log.Warn(context.TODO(), "pedestrian too close to wall",
		telemetry.Int("agent_id", int(a.ID)),
		telemetry.Float("distance", minDist),
	)
}
