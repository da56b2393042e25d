package geometry

import "fmt"

// Building is a collection of Rooms, each a collection of SubRooms. It is
// supplied pre-built by the host (geometry file loading is out of scope,
// §1) and is treated as read-only for the duration of a tick (§5).
type Building struct {
	Rooms map[int]*Room

	nextTransitionID TransitionID
	nextCrossingID   CrossingID
	transitions      map[TransitionID]*Transition
	crossings        map[CrossingID]*Crossing

	subroomIndex map[int]*SubRoom // subroom ID -> subroom, across all rooms
	splices      map[trainSpliceID]*trainSplice
}

// NewBuilding creates an empty Building; use AddRoom, AddTransition and
// AddCrossing to populate it.
func NewBuilding() *Building {
	return &Building{
		Rooms:        make(map[int]*Room),
		transitions:  make(map[TransitionID]*Transition),
		crossings:    make(map[CrossingID]*Crossing),
		subroomIndex: make(map[int]*SubRoom),
		splices:      make(map[trainSpliceID]*trainSplice),
	}
}

// AddRoom registers a room.
func (b *Building) AddRoom(r *Room) {
	b.Rooms[r.ID] = r
	for _, sr := range r.SubRooms {
		b.subroomIndex[sr.ID] = sr
		sr.finalize()
	}
}

// AddTransition registers a door between two subrooms (or to the outside
// when subRoom2 is NoSubRoom) and wires subroom adjacency.
func (b *Building) AddTransition(t *Transition) TransitionID {
	if t.ID == 0 {
		b.nextTransitionID++
		t.ID = b.nextTransitionID
	}
	b.transitions[t.ID] = t
	if sr := b.subroomIndex[t.SubRoom1]; sr != nil {
		sr.Transitions = append(sr.Transitions, t)
	}
	if t.SubRoom2 != NoSubRoom {
		if sr := b.subroomIndex[t.SubRoom2]; sr != nil {
			sr.Transitions = append(sr.Transitions, t)
		}
	}
	b.linkAdjacency(t.SubRoom1, t.SubRoom2)
	return t.ID
}

// AddCrossing registers an always-open internal passage.
func (b *Building) AddCrossing(c *Crossing) CrossingID {
	if c.ID == 0 {
		b.nextCrossingID++
		c.ID = b.nextCrossingID
	}
	b.crossings[c.ID] = c
	if sr := b.subroomIndex[c.SubRoom1]; sr != nil {
		sr.Crossings = append(sr.Crossings, c)
	}
	if sr := b.subroomIndex[c.SubRoom2]; sr != nil {
		sr.Crossings = append(sr.Crossings, c)
	}
	b.linkAdjacency(c.SubRoom1, c.SubRoom2)
	return c.ID
}

func (b *Building) linkAdjacency(a, c int) {
	if a == NoSubRoom || c == NoSubRoom {
		return
	}
	srA, srC := b.subroomIndex[a], b.subroomIndex[c]
	if srA == nil || srC == nil {
		return
	}
	if srA.adjacency == nil {
		srA.adjacency = make(map[int]bool)
	}
	if srC.adjacency == nil {
		srC.adjacency = make(map[int]bool)
	}
	srA.adjacency[c] = true
	srC.adjacency[a] = true
}

// SubRoom looks up a subroom by ID across all rooms.
func (b *Building) SubRoom(id int) (*SubRoom, bool) {
	sr, ok := b.subroomIndex[id]
	return sr, ok
}

// Transition looks up a transition (door) by ID.
func (b *Building) Transition(id TransitionID) (*Transition, bool) {
	t, ok := b.transitions[id]
	return t, ok
}

// Transitions returns every registered transition, for routing graph
// construction.
func (b *Building) Transitions() map[TransitionID]*Transition {
	return b.transitions
}

// IsDirectlyConnected reports whether two subrooms share a transition or
// crossing, used by the operational model to decide which neighbors to
// consider (§4.D step 2).
func (b *Building) IsDirectlyConnected(a, c int) bool {
	if a == c {
		return true
	}
	sr, ok := b.subroomIndex[a]
	if !ok {
		return false
	}
	return sr.adjacency[c]
}

// GetRoomAndSubRoom returns the room and subroom containing p. It scans
// every subroom, skipping those whose bounding box excludes p, and runs the
// exact point-in-polygon test on the rest, so each lookup is linear in the
// number of subrooms; there is no spatial index over subrooms.
func (b *Building) GetRoomAndSubRoom(p Point) (roomID, subRoomID int, ok bool) {
	for _, r := range b.Rooms {
		for _, sr := range r.SubRooms {
			if p.X < sr.bbMin.X || p.X > sr.bbMax.X || p.Y < sr.bbMin.Y || p.Y > sr.bbMax.Y {
				continue
			}
			if sr.Contains(p) {
				return r.ID, sr.ID, true
			}
		}
	}
	return 0, 0, false
}

// IsVisible reports whether p1 and p2 have a clear line of sight: not
// blocked by any wall or obstacle edge of the hinted subrooms, but passable
// through an OPEN transition or a crossing.
func (b *Building) IsVisible(p1, p2 Point, subroomHint ...*SubRoom) bool {
	sight := Segment{p1, p2}
	seen := make(map[int]bool, len(subroomHint))
	for _, sr := range subroomHint {
		if sr == nil || seen[sr.ID] {
			continue
		}
		seen[sr.ID] = true
		for _, wall := range sr.AllWallSegments() {
			if sight.Intersects(wall) {
				return false
			}
		}
		for _, t := range sr.Transitions {
			if !t.IsOpen() && sight.Intersects(t.Line) {
				return false
			}
		}
	}
	return true
}

// AllTransitionsAndCrossings returns doors and crossings together, for
// routing graph construction (both are traversable edges, doors gated by
// state).
func (b *Building) AllTransitionsAndCrossings() ([]*Transition, []*Crossing) {
	ts := make([]*Transition, 0, len(b.transitions))
	for _, t := range b.transitions {
		ts = append(ts, t)
	}
	cs := make([]*Crossing, 0, len(b.crossings))
	for _, c := range b.crossings {
		cs = append(cs, c)
	}
	return ts, cs
}

func (b *Building) String() string {
	return fmt.Sprintf("Building{rooms=%d, transitions=%d, crossings=%d}", len(b.Rooms), len(b.transitions), len(b.crossings))
}
