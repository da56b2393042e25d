package events

import (
	"testing"

	"pedsim/internal/geometry"
	"pedsim/internal/routing"
)

func buildingWithDoor() (*geometry.Building, geometry.TransitionID) {
	b := geometry.NewBuilding()
	sr1 := &geometry.SubRoom{ID: 1, RoomID: 1, Boundary: geometry.NewPolygon(
		geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10), geometry.Pt(0, 10))}
	sr2 := &geometry.SubRoom{ID: 2, RoomID: 1, Boundary: geometry.NewPolygon(
		geometry.Pt(10, 0), geometry.Pt(20, 0), geometry.Pt(20, 10), geometry.Pt(10, 10))}
	b.AddRoom(&geometry.Room{ID: 1, SubRooms: map[int]*geometry.SubRoom{1: sr1, 2: sr2}})
	door := &geometry.Transition{
		Line:     geometry.NewSegment(geometry.Pt(10, 4), geometry.Pt(10, 6)),
		SubRoom1: 1,
		SubRoom2: 2,
		State:    geometry.StateOpen,
	}
	id := b.AddTransition(door)
	return b, id
}

func TestApplyOrdersByTimestampThenInsertion(t *testing.T) {
	b, doorID := buildingWithDoor()
	router := routing.New(b, routing.ShortestPath)
	router.RebuildIfNeeded()
	p := New(nil)

	p.Schedule(Event{Time: 2, Kind: OpenDoor, DoorID: doorID})
	p.Schedule(Event{Time: 1, Kind: TempCloseDoor, DoorID: doorID})

	errs := p.Apply(5, b, router)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	tr, _ := b.Transition(doorID)
	if tr.State != geometry.StateOpen {
		t.Fatalf("expected the later-timestamped OpenDoor to win, got %v", tr.State)
	}

	p.Schedule(Event{Time: 6, Kind: CloseDoor, DoorID: doorID})
	p.Schedule(Event{Time: 6, Kind: OpenDoor, DoorID: doorID})
	if errs := p.Apply(6, b, router); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	tr, _ = b.Transition(doorID)
	if tr.State != geometry.StateOpen {
		t.Fatalf("expected the later-inserted OpenDoor to win a timestamp tie, got %v", tr.State)
	}
}

func TestApplyLeavesFutureEventsPending(t *testing.T) {
	b, doorID := buildingWithDoor()
	router := routing.New(b, routing.ShortestPath)
	router.RebuildIfNeeded()
	p := New(nil)

	p.Schedule(Event{Time: 10, Kind: CloseDoor, DoorID: doorID})
	if errs := p.Apply(1, b, router); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	tr, _ := b.Transition(doorID)
	if tr.State != geometry.StateOpen {
		t.Fatal("expected a not-yet-due event to leave door state untouched")
	}
	if p.Pending() != 1 {
		t.Fatalf("expected 1 event still pending, got %d", p.Pending())
	}
}

func TestApplyUnknownDoorIDReportsErrorNotFatal(t *testing.T) {
	b, _ := buildingWithDoor()
	router := routing.New(b, routing.ShortestPath)
	router.RebuildIfNeeded()
	p := New(nil)

	p.Schedule(Event{Time: 0, Kind: OpenDoor, DoorID: 999})
	errs := p.Apply(1, b, router)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one reported error, got %v", errs)
	}
}

func TestApplyMarksRouterDirtyOnSuccess(t *testing.T) {
	b, doorID := buildingWithDoor()
	router := routing.New(b, routing.ShortestPath)
	router.RebuildIfNeeded()
	p := New(nil)

	p.Schedule(Event{Time: 0, Kind: TempCloseDoor, DoorID: doorID})
	p.Apply(1, b, router)
	if !router.NeedsUpdate() {
		t.Fatal("expected a successful door-state event to mark the router dirty")
	}
}

func TestApplyTrainActivationAndDeactivationRoundTrip(t *testing.T) {
	b := geometry.NewBuilding()
	sr := &geometry.SubRoom{ID: 1, RoomID: 1, Boundary: geometry.NewPolygon(
		geometry.Pt(0, 0), geometry.Pt(20, 0), geometry.Pt(20, 10), geometry.Pt(0, 10))}
	sr.Walls = []geometry.Segment{geometry.NewSegment(geometry.Pt(0, 0), geometry.Pt(20, 0))}
	b.AddRoom(&geometry.Room{ID: 1, SubRooms: map[int]*geometry.SubRoom{1: sr}})

	track := &geometry.Track{ID: "t1", SubRoom: 1, Line: geometry.NewSegment(geometry.Pt(0, 0), geometry.Pt(20, 0))}
	tracks := map[string]*geometry.Track{"t1": track}
	tt := &geometry.TrainType{Name: "TypeA", Doors: []geometry.TrainDoor{{Offset: 2, Width: 1.5}}}

	router := routing.New(b, routing.ShortestPath)
	router.RebuildIfNeeded()
	p := New(tracks)

	wallsBefore := len(sr.Walls)
	p.Schedule(Event{Time: 1, Kind: ActivateTrain, TrainID: "train-1", TrackID: "t1", TrainType: tt})
	if errs := p.Apply(1, b, router); len(errs) != 0 {
		t.Fatalf("expected train activation to succeed, got %v", errs)
	}

	p.Schedule(Event{Time: 2, Kind: DeactivateTrain, TrainID: "train-1"})
	if errs := p.Apply(2, b, router); len(errs) != 0 {
		t.Fatalf("expected train deactivation to succeed, got %v", errs)
	}
	if len(sr.Walls) != wallsBefore {
		t.Fatal("expected deactivation to restore the original wall set")
	}
}
