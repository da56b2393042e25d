package routing

import (
	"testing"

	"pedsim/internal/geometry"
)

func square(minX, minY, maxX, maxY float64) geometry.Polygon {
	return geometry.NewPolygon(
		geometry.Pt(minX, minY), geometry.Pt(maxX, minY),
		geometry.Pt(maxX, maxY), geometry.Pt(minX, maxY),
	)
}

// buildTwoRoomBuilding wires subrooms 1 and 2 together through a door at
// x=10, and returns the building plus the door transition for state toggling.
func buildTwoRoomBuilding(t *testing.T) (*geometry.Building, *geometry.Transition) {
	t.Helper()
	b := geometry.NewBuilding()
	sr1 := &geometry.SubRoom{ID: 1, RoomID: 1, Boundary: square(0, 0, 10, 10)}
	sr2 := &geometry.SubRoom{ID: 2, RoomID: 1, Boundary: square(10, 0, 20, 10)}
	b.AddRoom(&geometry.Room{ID: 1, SubRooms: map[int]*geometry.SubRoom{1: sr1, 2: sr2}})

	door := &geometry.Transition{
		Line:     geometry.NewSegment(geometry.Pt(10, 4), geometry.Pt(10, 6)),
		SubRoom1: 1,
		SubRoom2: 2,
		State:    geometry.StateOpen,
	}
	b.AddTransition(door)
	return b, door
}

func TestResolveSameSubroomTargetsDirectly(t *testing.T) {
	b, _ := buildTwoRoomBuilding(t)
	eng := New(b, ShortestPath)
	eng.RebuildIfNeeded()

	target := geometry.Pt(5, 5)
	res := eng.Resolve(geometry.Pt(1, 1), 1, 1, target)
	if res.Waiting {
		t.Fatal("expected no waiting when already in the target subroom")
	}
	if res.NavLine.P1 != target || res.NavLine.P2 != target {
		t.Fatalf("expected nav line to collapse onto the target point, got %+v", res.NavLine)
	}
}

func TestResolveRoutesThroughOpenDoor(t *testing.T) {
	b, door := buildTwoRoomBuilding(t)
	eng := New(b, ShortestPath)
	eng.RebuildIfNeeded()

	res := eng.Resolve(geometry.Pt(1, 5), 1, 2, geometry.Pt(15, 5))
	if res.Waiting {
		t.Fatal("expected no waiting with an open door on the path")
	}
	if res.NavLine != door.Line {
		t.Fatalf("expected nav line to be the door itself, got %+v", res.NavLine)
	}
}

func TestResolveWaitsOnTempCloseDoor(t *testing.T) {
	b, door := buildTwoRoomBuilding(t)
	door.State = geometry.StateTempClose
	eng := New(b, ShortestPath)
	eng.RebuildIfNeeded()

	res := eng.Resolve(geometry.Pt(1, 5), 1, 2, geometry.Pt(15, 5))
	if !res.Waiting {
		t.Fatal("expected an agent facing a temp-closed door to enter waiting")
	}
}

func TestResolveUnreachableWhenDoorFullyClosed(t *testing.T) {
	b, door := buildTwoRoomBuilding(t)
	door.State = geometry.StateClose
	eng := New(b, ShortestPath)
	eng.RebuildIfNeeded()

	res := eng.Resolve(geometry.Pt(1, 5), 1, 2, geometry.Pt(15, 5))
	if !res.Waiting {
		t.Fatal("expected a fully closed-off building to report waiting (FINAL_DEST_OUT)")
	}
}

func TestRebuildPicksUpDoorReopening(t *testing.T) {
	b, door := buildTwoRoomBuilding(t)
	door.State = geometry.StateClose
	eng := New(b, ShortestPath)
	eng.RebuildIfNeeded()

	if res := eng.Resolve(geometry.Pt(1, 5), 1, 2, geometry.Pt(15, 5)); !res.Waiting {
		t.Fatal("expected waiting while door is closed")
	}

	door.State = geometry.StateOpen
	eng.MarkDirty()
	if !eng.NeedsUpdate() {
		t.Fatal("expected MarkDirty to set the pending-rebuild flag")
	}
	eng.RebuildIfNeeded()
	if eng.NeedsUpdate() {
		t.Fatal("expected RebuildIfNeeded to clear the flag")
	}

	res := eng.Resolve(geometry.Pt(1, 5), 1, 2, geometry.Pt(15, 5))
	if res.Waiting {
		t.Fatal("expected reopened door to unblock routing after rebuild")
	}
}

func TestFloorFieldStrategyTargetsGoalDirectly(t *testing.T) {
	b, _ := buildTwoRoomBuilding(t)
	eng := New(b, FloorField)
	eng.RebuildIfNeeded()

	target := geometry.Pt(15, 5)
	res := eng.Resolve(geometry.Pt(1, 5), 1, 2, target)
	if res.Waiting {
		t.Fatal("expected floor-field strategy to never itself signal waiting")
	}
	if res.NavLine.P1 != target || res.NavLine.P2 != target {
		t.Fatalf("expected floor-field nav line to aim at the goal, got %+v", res.NavLine)
	}
}
