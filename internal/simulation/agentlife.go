package simulation

import (
	"pedsim/internal/agent"
	"pedsim/internal/geometry"
	"pedsim/internal/simerr"
	"pedsim/internal/stage"
)

// placementEps is the minimum separation AddAgent requires between a new
// agent and every existing one, matching the operational model's own
// coincident-agent tolerance (§3 Invariants, Scenario 6).
const placementEps = 1e-3

// AgentDesc describes a new agent for AddAgent.
type AgentDesc struct {
	Pos            geometry.Point
	Orientation    geometry.Point
	ProfileID      int
	JourneyID      stage.JourneyID
	StageID        stage.ID
	PremovementEnd float64
}

// AddAgent validates and inserts a new agent (§6), then runs one tactical
// pass for it alone so its first tick already has a resolved navigation
// line. No strategic pass runs at insertion; the agent starts at the given
// stage.
func (s *Simulation) AddAgent(desc AgentDesc) (agent.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[desc.ProfileID]
	if !ok {
		return 0, simerr.NewConfigError("add agent: unknown profile id %d", desc.ProfileID)
	}
	journey, ok := s.journeys[desc.JourneyID]
	if !ok {
		return 0, simerr.NewConfigError("add agent: unknown journey id %d", desc.JourneyID)
	}
	if !journey.ContainsStage(desc.StageID) {
		return 0, simerr.NewConfigError("add agent: journey %d has no stage %d", desc.JourneyID, desc.StageID)
	}
	roomID, _, ok := s.building.GetRoomAndSubRoom(desc.Pos)
	if !ok {
		return 0, simerr.NewConfigError("add agent: position %v is not inside any subroom", desc.Pos)
	}
	for _, other := range s.agents {
		if other.Pos.Distance(desc.Pos) < placementEps {
			return 0, simerr.NewInvariantViolation("add agent: position %v collides with agent %d", desc.Pos, other.ID)
		}
	}

	orientation := desc.Orientation.Normalized()
	if orientation == (geometry.Point{}) {
		orientation = geometry.Point{X: 1, Y: 0}
	}

	id := agent.ID(s.nextAgentID)
	s.nextAgentID++

	a := &agent.Agent{
		ID:             id,
		Pos:            desc.Pos,
		Orientation:    orientation,
		JourneyID:      int(desc.JourneyID),
		StageID:        int(desc.StageID),
		PremovementEnd: desc.PremovementEnd,
		ProfileID:      desc.ProfileID,
	}
	if err := a.Validate(profile.BMax); err != nil {
		return 0, simerr.Wrap(simerr.InvariantViolation, err, "add agent")
	}

	s.agents[int(id)] = a
	s.meta[int(id)] = agentMeta{insertedAt: s.clk.ElapsedTime(), room: roomID}

	s.tacticalStep(a)

	return id, nil
}

// RemoveAgent deletes an agent immediately, releasing any WaitingSet/Queue
// slot it held.
func (s *Simulation) RemoveAgent(id agent.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.removeAgentLocked(id); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncRemoved(1)
	}
	return nil
}

func (s *Simulation) removeAgentLocked(id agent.ID) error {
	a, ok := s.agents[int(id)]
	if !ok {
		return simerr.NewQueryError("remove agent: unknown agent id %d", id)
	}
	s.releaseStageSlot(a)
	delete(s.agents, int(id))
	delete(s.meta, int(id))
	return nil
}

// releaseStageSlot frees a WaitingSet/Queue occupancy slot when an agent
// leaves that stage, whether by advancing or by being removed outright.
func (s *Simulation) releaseStageSlot(a *agent.Agent) {
	st, ok := s.stages[stage.ID(a.StageID)]
	if !ok {
		return
	}
	switch w := st.(type) {
	case *stage.WaitingSet:
		w.Leave(int(a.ID))
	case *stage.Queue:
		w.Leave(int(a.ID))
	}
}

// Agent returns a copy of one agent's current state, for host code that
// needs a single agent's full state (e.g. building a trajectory record on
// demand) rather than the per-tick Records() stream.
func (s *Simulation) Agent(id agent.ID) (agent.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[int(id)]
	if !ok {
		return agent.Agent{}, false
	}
	return *a, true
}

// AgentsInRange returns every live agent within r of p.
func (s *Simulation) AgentsInRange(p geometry.Point, r float64) []agent.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []agent.ID
	r2 := r * r
	for _, a := range s.agents {
		if a.Pos.Sub(p).NormSquare() <= r2 {
			out = append(out, a.ID)
		}
	}
	return out
}

// AgentsInPolygon returns every live agent inside poly, which must be
// convex. It pre-filters candidates via the polygon's containing circle
// before the exact point-in-polygon test, matching the original's use of
// Polygon::ContainingCircle to narrow the neighborhood query.
func (s *Simulation) AgentsInPolygon(poly geometry.Polygon) ([]agent.ID, error) {
	if !poly.IsConvex() {
		return nil, simerr.NewQueryError("agents in polygon: polygon is not convex")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	center, radius := poly.ContainingCircle()
	var out []agent.ID
	r2 := radius * radius
	for _, a := range s.agents {
		if a.Pos.Sub(center).NormSquare() > r2 {
			continue
		}
		if poly.Contains(a.Pos) {
			out = append(out, a.ID)
		}
	}
	return out, nil
}

// SwitchAgentJourney moves an agent onto a different journey, starting at
// stageID, resetting any per-stage transient state.
func (s *Simulation) SwitchAgentJourney(id agent.ID, journeyID stage.JourneyID, stageID stage.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	journey, ok := s.journeys[journeyID]
	if !ok {
		return simerr.NewConfigError("switch journey: unknown journey id %d", journeyID)
	}
	if !journey.ContainsStage(stageID) {
		return simerr.NewConfigError("switch journey: journey %d has no stage %d", journeyID, stageID)
	}
	a, ok := s.agents[int(id)]
	if !ok {
		return simerr.NewQueryError("switch journey: unknown agent id %d", id)
	}

	s.releaseStageSlot(a)
	a.JourneyID = int(journeyID)
	a.StageID = int(stageID)
	a.Waiting = false
	a.HasNavLine = false
	return nil
}

// SwitchAgentProfile reassigns an agent's operational-model profile,
// validating the profile id exists first (a ConfigError, not a silent
// no-op), matching ValidateAgentParameterProfileId in the original.
func (s *Simulation) SwitchAgentProfile(id agent.ID, profileID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profileID]; !ok {
		return simerr.NewConfigError("switch profile: unknown profile id %d", profileID)
	}
	a, ok := s.agents[int(id)]
	if !ok {
		return simerr.NewQueryError("switch profile: unknown agent id %d", id)
	}
	a.ProfileID = profileID
	return nil
}
