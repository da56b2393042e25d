package geometry

import (
	"fmt"
	"slices"
)

// Track is a straight rail segment through a subroom that trains can be
// activated along.
type Track struct {
	ID       string
	SubRoom  int
	Line     Segment
}

// TrainDoor is one door opening in a TrainType, given as an offset and
// width along the track direction from the train's reference point.
type TrainDoor struct {
	Offset float64
	Width  float64
}

// TrainType describes the fixed geometry of a train: where its doors sit
// relative to its own reference point. Parsing a train-type definition
// file is out of scope (§1); the host hands the engine an already-resolved
// TrainType.
type TrainType struct {
	Name  string
	Doors []TrainDoor
}

type trainSplice struct {
	subRoomID     int
	wallsRemoved  []Segment
	wallsAdded    []Segment
	doorsAdded    []TransitionID
}

// AddTrainDoors activates a train on the given track: for each TrainDoor it
// cuts a door-sized gap out of the first wall parallel to the track that
// overlaps the door's span (other overlapping walls are left whole) and
// adds a Transition there. The exact set of walls removed/added and doors created
// is recorded under trainID so RemoveTrainDoors can invert it precisely.
func (b *Building) AddTrainDoors(trainID, trackID string, tt *TrainType, startOffset float64, reversed bool, tracks map[string]*Track) error {
	id := trainSpliceID(trainID)
	if _, exists := b.splices[id]; exists {
		return fmt.Errorf("train %q is already active", trainID)
	}
	track, ok := tracks[trackID]
	if !ok {
		return fmt.Errorf("unknown track id %q", trackID)
	}
	sr, ok := b.subroomIndex[track.SubRoom]
	if !ok {
		return fmt.Errorf("track %q references unknown subroom %d", trackID, track.SubRoom)
	}

	dir := track.Line.Vector().Normalized()
	if reversed {
		dir = dir.Scale(-1)
	}
	trackLen := track.Line.Length()

	splice := &trainSplice{subRoomID: sr.ID}
	remainingWalls := make([]Segment, 0, len(sr.Walls))
	removedAny := false

	for i, door := range tt.Doors {
		center := startOffset + door.Offset
		lo, hi := center-door.Width/2, center+door.Width/2
		if lo < 0 {
			lo = 0
		}
		if hi > trackLen {
			hi = trackLen
		}
		gapStart := track.Line.P1.Add(dir.Scale(lo))
		gapEnd := track.Line.P1.Add(dir.Scale(hi))

		cut := false
		walls := sr.Walls
		if i > 0 {
			walls = append([]Segment(nil), remainingWalls...)
			remainingWalls = remainingWalls[:0]
		}
		for _, wall := range walls {
			s := wall.Vector().Normalized().Dot(dir)
			if s < 0.99 && s > -0.99 {
				// Not collinear with the track direction: not a
				// candidate for this door's wall cut.
				remainingWalls = append(remainingWalls, wall)
				continue
			}
			wLo := wall.P1.Sub(track.Line.P1).Dot(dir)
			wHi := wall.P2.Sub(track.Line.P1).Dot(dir)
			if wLo > wHi {
				wLo, wHi = wHi, wLo
			}
			if hi <= wLo || lo >= wHi || cut {
				remainingWalls = append(remainingWalls, wall)
				continue
			}
			cut = true
			removedAny = true
			if k := slices.Index(splice.wallsAdded, wall); k >= 0 {
				// A stub left by an earlier door: it never existed before
				// activation, so drop it rather than restore it later.
				splice.wallsAdded = slices.Delete(splice.wallsAdded, k, k+1)
			} else {
				splice.wallsRemoved = append(splice.wallsRemoved, wall)
			}
			if wLo < lo {
				stub := Segment{track.Line.P1.Add(dir.Scale(wLo)), gapStart}
				remainingWalls = append(remainingWalls, stub)
				splice.wallsAdded = append(splice.wallsAdded, stub)
			}
			if wHi > hi {
				stub := Segment{gapEnd, track.Line.P1.Add(dir.Scale(wHi))}
				remainingWalls = append(remainingWalls, stub)
				splice.wallsAdded = append(splice.wallsAdded, stub)
			}
		}

		doorTransition := &Transition{
			Line:     Segment{gapStart, gapEnd},
			Room1:    sr.RoomID,
			SubRoom1: sr.ID,
			Room2:    sr.RoomID,
			SubRoom2: NoSubRoom,
			State:    StateOpen,
			fromTrain: id,
		}
		tid := b.AddTransition(doorTransition)
		splice.doorsAdded = append(splice.doorsAdded, tid)
	}

	if removedAny {
		sr.Walls = remainingWalls
	}
	sr.finalize()
	b.splices[id] = splice
	return nil
}

// RemoveTrainDoors exactly inverts AddTrainDoors for trainID, restoring the
// subroom's wall and transition multisets to their pre-activation state.
func (b *Building) RemoveTrainDoors(trainID string) error {
	id := trainSpliceID(trainID)
	splice, ok := b.splices[id]
	if !ok {
		return fmt.Errorf("no active train %q", trainID)
	}
	sr, ok := b.subroomIndex[splice.subRoomID]
	if !ok {
		return fmt.Errorf("train %q references subroom %d which no longer exists", trainID, splice.subRoomID)
	}

	for _, tid := range splice.doorsAdded {
		delete(b.transitions, tid)
	}
	kept := sr.Transitions[:0:0]
	for _, t := range sr.Transitions {
		if t.fromTrain == id {
			continue
		}
		kept = append(kept, t)
	}
	sr.Transitions = kept

	if len(splice.wallsAdded) > 0 {
		remaining := make([]Segment, 0, len(sr.Walls))
		added := make(map[Segment]bool, len(splice.wallsAdded))
		for _, w := range splice.wallsAdded {
			added[w] = true
		}
		for _, w := range sr.Walls {
			if added[w] {
				continue
			}
			remaining = append(remaining, w)
		}
		sr.Walls = remaining
	}
	sr.Walls = append(sr.Walls, splice.wallsRemoved...)
	sr.finalize()

	delete(b.splices, id)
	return nil
}
