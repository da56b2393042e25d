package simulation

import (
	"testing"

	"pedsim/internal/agent"
	"pedsim/internal/geometry"
	"pedsim/internal/model"
	"pedsim/internal/routing"
	"pedsim/internal/simerr"
	"pedsim/internal/stage"
)

func square(minX, minY, maxX, maxY float64) geometry.Polygon {
	return geometry.NewPolygon(
		geometry.Pt(minX, minY), geometry.Pt(maxX, minY),
		geometry.Pt(maxX, maxY), geometry.Pt(minX, maxY),
	)
}

// boundedSubRoom builds a subroom whose walls are exactly its boundary
// edges, matching the geometry package's own test fixtures.
func boundedSubRoom(id, roomID int, boundary geometry.Polygon) *geometry.SubRoom {
	n := len(boundary.Vertices)
	walls := make([]geometry.Segment, n)
	for i := 0; i < n; i++ {
		walls[i] = boundary.Edge(i)
	}
	return &geometry.SubRoom{ID: id, RoomID: roomID, Boundary: boundary, Walls: walls}
}

// corridorBuilding is a single 10x2 corridor, subroom 1.
func corridorBuilding(t *testing.T) *geometry.Building {
	t.Helper()
	b := geometry.NewBuilding()
	sr := boundedSubRoom(1, 1, square(0, 0, 10, 2))
	b.AddRoom(&geometry.Room{ID: 1, SubRooms: map[int]*geometry.SubRoom{1: sr}})
	return b
}

func testProfile() agent.Profile {
	return agent.Profile{ID: 1, V0: 1.2, T: 0.5, BMax: 0.2}
}

func newTestSimulation(t *testing.T, b *geometry.Building) *Simulation {
	t.Helper()
	m, err := model.New(1, 0.3, 5, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	router := routing.New(b, routing.ShortestPath)
	sim, err := New(Config{
		Building:      b,
		Router:        router,
		Model:         m,
		Profiles:      []agent.Profile{testProfile()},
		CellSize:      1.0,
		DistEffMaxPed: 1.0,
		DT:            0.05,
	})
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

func addExitJourney(t *testing.T, sim *Simulation, exitPoly geometry.Polygon) (stage.JourneyID, stage.ID) {
	t.Helper()
	exitID, err := sim.AddStage(ExitDesc{Polygon: exitPoly})
	if err != nil {
		t.Fatal(err)
	}
	journeyID, err := sim.AddJourney(map[stage.ID]stage.TransitionRule{
		exitID: stage.NonTransition{Self: exitID},
	})
	if err != nil {
		t.Fatal(err)
	}
	return journeyID, exitID
}

func TestAddAgentRejectsUnknownProfileJourneyStage(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))

	if _, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 99, JourneyID: journeyID, StageID: exitID}); !simerr.Is(err, simerr.ConfigError) {
		t.Fatalf("expected ConfigError for unknown profile, got %v", err)
	}
	if _, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: 999, StageID: exitID}); !simerr.Is(err, simerr.ConfigError) {
		t.Fatalf("expected ConfigError for unknown journey, got %v", err)
	}
	if _, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: 999}); !simerr.Is(err, simerr.ConfigError) {
		t.Fatalf("expected ConfigError for unknown stage, got %v", err)
	}
}

func TestAddAgentRejectsPlacementOutsideGeometry(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))

	if _, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(50, 50), ProfileID: 1, JourneyID: journeyID, StageID: exitID}); !simerr.Is(err, simerr.ConfigError) {
		t.Fatalf("expected ConfigError for out-of-geometry placement, got %v", err)
	}
}

func TestAddAgentRejectsCoincidentPlacement(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))

	if _, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID}); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID}); !simerr.Is(err, simerr.InvariantViolation) {
		t.Fatalf("expected InvariantViolation for coincident placement (scenario 6), got %v", err)
	}
}

func TestAddAgentResolvesNavLineImmediately(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))

	id, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID})
	if err != nil {
		t.Fatal(err)
	}
	a, ok := sim.Agent(id)
	if !ok {
		t.Fatal("expected to find the newly added agent")
	}
	if !a.HasNavLine {
		t.Fatal("expected AddAgent to resolve a nav line immediately, matching Simulation::AddAgent")
	}
}

func TestIterateMovesAgentTowardExitAndRemovesOnArrival(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))

	id, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), Orientation: geometry.Pt(1, 0), ProfileID: 1, JourneyID: journeyID, StageID: exitID})
	if err != nil {
		t.Fatal(err)
	}

	removed := false
	for i := 0; i < 400 && !removed; i++ {
		if err := sim.Iterate(); err != nil {
			t.Fatalf("iterate failed at tick %d: %v", i, err)
		}
		for _, rid := range sim.RemovedAgentsInLastIteration() {
			if agent.ID(rid) == id {
				removed = true
			}
		}
	}
	if !removed {
		t.Fatal("expected the agent to reach the exit and be removed within 400 ticks")
	}

	summary := sim.Summary()
	times, ok := summary.EgressTimeByRoom[1]
	if !ok || len(times) != 1 {
		t.Fatalf("expected one recorded egress time for room 1, got %+v", summary.EgressTimeByRoom)
	}
	if times[0] <= 0 {
		t.Fatalf("expected a positive egress time, got %v", times[0])
	}
}

func TestIteratePublishesTrajectoryRecords(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))
	if _, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID}); err != nil {
		t.Fatal(err)
	}

	if err := sim.Iterate(); err != nil {
		t.Fatal(err)
	}

	select {
	case rec := <-sim.Records():
		if len(rec.Trajectories) != 1 {
			t.Fatalf("expected one trajectory record for one live agent, got %d", len(rec.Trajectories))
		}
	default:
		t.Fatal("expected a record to be published after Iterate")
	}
}

func TestSwitchAgentProfileValidatesID(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))
	id, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID})
	if err != nil {
		t.Fatal(err)
	}

	if err := sim.SwitchAgentProfile(id, 42); !simerr.Is(err, simerr.ConfigError) {
		t.Fatalf("expected ConfigError for unknown profile id, got %v", err)
	}
	if err := sim.SwitchAgentProfile(id, 1); err != nil {
		t.Fatal(err)
	}
}

func TestSwitchAgentJourneyValidatesIDs(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))
	id, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID})
	if err != nil {
		t.Fatal(err)
	}

	if err := sim.SwitchAgentJourney(id, 999, exitID); !simerr.Is(err, simerr.ConfigError) {
		t.Fatalf("expected ConfigError for unknown journey, got %v", err)
	}
	if err := sim.SwitchAgentJourney(id, journeyID, exitID); err != nil {
		t.Fatal(err)
	}
}

func TestAgentsInRangeAndPolygon(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))
	near, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID})
	if err != nil {
		t.Fatal(err)
	}
	far, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(8, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID})
	if err != nil {
		t.Fatal(err)
	}

	inRange := sim.AgentsInRange(geometry.Pt(1, 1), 0.5)
	if len(inRange) != 1 || inRange[0] != near {
		t.Fatalf("expected only the near agent in range, got %+v", inRange)
	}

	inPoly, err := sim.AgentsInPolygon(square(7, 0, 9, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(inPoly) != 1 || inPoly[0] != far {
		t.Fatalf("expected only the far agent inside the polygon, got %+v", inPoly)
	}

	concave := geometry.NewPolygon(geometry.Pt(0, 0), geometry.Pt(2, 1), geometry.Pt(0, 2), geometry.Pt(1, 1))
	if _, err := sim.AgentsInPolygon(concave); !simerr.Is(err, simerr.QueryError) {
		t.Fatalf("expected QueryError for non-convex polygon, got %v", err)
	}
}

func TestRemoveAgentDeletesImmediately(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	journeyID, exitID := addExitJourney(t, sim, square(9, 0, 10, 2))
	id, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: exitID})
	if err != nil {
		t.Fatal(err)
	}

	if err := sim.RemoveAgent(id); err != nil {
		t.Fatal(err)
	}
	if _, ok := sim.Agent(id); ok {
		t.Fatal("expected removed agent to no longer be found")
	}
	if err := sim.RemoveAgent(id); !simerr.Is(err, simerr.QueryError) {
		t.Fatalf("expected QueryError removing an already-removed agent, got %v", err)
	}
}

func TestWaitingSetGatesAdmissionAndNotify(t *testing.T) {
	sim := newTestSimulation(t, corridorBuilding(t))
	waitID, err := sim.AddStage(WaitingSetDesc{Point: geometry.Pt(5, 1), Slots: 1})
	if err != nil {
		t.Fatal(err)
	}
	exitID, err := sim.AddStage(ExitDesc{Polygon: square(9, 0, 10, 2)})
	if err != nil {
		t.Fatal(err)
	}
	journeyID, err := sim.AddJourney(map[stage.ID]stage.TransitionRule{
		waitID: stage.FixedTransition{NextID: exitID},
		exitID: stage.NonTransition{Self: exitID},
	})
	if err != nil {
		t.Fatal(err)
	}

	id, err := sim.AddAgent(AgentDesc{Pos: geometry.Pt(1, 1), ProfileID: 1, JourneyID: journeyID, StageID: waitID})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := sim.Iterate(); err != nil {
			t.Fatal(err)
		}
	}
	a, _ := sim.Agent(id)
	if a.StageID != int(waitID) {
		t.Fatal("expected agent to remain on the waiting set until notified")
	}

	if err := sim.NotifyWaitingSet(waitID, id); err != nil {
		t.Fatal(err)
	}
	if err := sim.Iterate(); err != nil {
		t.Fatal(err)
	}
	a, _ = sim.Agent(id)
	if a.StageID != int(exitID) {
		t.Fatal("expected agent to advance to the exit stage after being notified")
	}
}

func TestEventScheduleOpensClosedDoorAcrossTick(t *testing.T) {
	b := geometry.NewBuilding()
	sr1 := boundedSubRoom(1, 1, square(0, 0, 10, 10))
	sr2 := boundedSubRoom(2, 1, square(10, 0, 20, 10))
	b.AddRoom(&geometry.Room{ID: 1, SubRooms: map[int]*geometry.SubRoom{1: sr1, 2: sr2}})
	door := &geometry.Transition{
		Line:     geometry.NewSegment(geometry.Pt(10, 4), geometry.Pt(10, 6)),
		SubRoom1: 1, SubRoom2: 2, State: geometry.StateClose,
	}
	doorID := b.AddTransition(door)

	sim := newTestSimulation(t, b)
	sim.ScheduleOpenDoor(0.1, doorID)

	for i := 0; i < 5; i++ {
		if err := sim.Iterate(); err != nil {
			t.Fatal(err)
		}
	}
	if door.State != geometry.StateOpen {
		t.Fatalf("expected the scheduled OpenDoor event to have fired, door state is %v", door.State)
	}
}
