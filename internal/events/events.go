// Package events implements the EventProcessor (§4.H): timestamped
// commands that mutate geometry or door state at tick boundaries and flag
// the routing cache dirty.
package events

import (
	"sort"

	"pedsim/internal/geometry"
	"pedsim/internal/routing"
	"pedsim/internal/simerr"
)

// Kind is the tag of one of the six event kinds the processor accepts.
type Kind int

const (
	OpenDoor Kind = iota
	TempCloseDoor
	CloseDoor
	ResetDoor
	ActivateTrain
	DeactivateTrain
)

// Event is one scheduled command. Only the fields relevant to Kind are
// read; this mirrors the closed sum-type dispatch spec.md §9 asks for
// (tag plus payload, not a hierarchy of event types).
type Event struct {
	Time      float64
	Seq       int // insertion order, breaks timestamp ties (§5)
	Kind      Kind
	DoorID    geometry.TransitionID
	TrainID   string
	TrackID   string
	TrainType *geometry.TrainType
	Offset    float64
	Reversed  bool
}

// Processor accumulates a schedule of events and applies the ones whose
// time has come at the top of each tick.
type Processor struct {
	pending []Event
	nextSeq int
	tracks  map[string]*geometry.Track
}

// New returns an empty event processor bound to the track layout trains
// run on (needed to resolve ActivateTrain events).
func New(tracks map[string]*geometry.Track) *Processor {
	return &Processor{tracks: tracks}
}

// Schedule adds an event to the pending queue, stamping it with the next
// insertion sequence number for tie-breaking.
func (p *Processor) Schedule(ev Event) {
	ev.Seq = p.nextSeq
	p.nextSeq++
	p.pending = append(p.pending, ev)
}

// Apply runs every pending event whose Time <= elapsed, in timestamp
// order with insertion order breaking ties, against building and router.
// Errors from individual events are collected, not fatal: a bad door id
// is reported to the caller but does not stop the run (§7). Events are
// removed from the pending queue once attempted, regardless of outcome.
func (p *Processor) Apply(elapsed float64, building *geometry.Building, router *routing.Engine) []error {
	due := make([]Event, 0, len(p.pending))
	rest := make([]Event, 0, len(p.pending))
	for _, ev := range p.pending {
		if ev.Time <= elapsed {
			due = append(due, ev)
		} else {
			rest = append(rest, ev)
		}
	}
	p.pending = rest

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Time != due[j].Time {
			return due[i].Time < due[j].Time
		}
		return due[i].Seq < due[j].Seq
	})

	var errs []error
	for _, ev := range due {
		if err := p.apply(ev, building); err != nil {
			errs = append(errs, err)
			continue
		}
		router.MarkDirty()
	}
	return errs
}

// Pending reports how many events remain scheduled for the future.
func (p *Processor) Pending() int {
	return len(p.pending)
}

func (p *Processor) apply(ev Event, building *geometry.Building) error {
	switch ev.Kind {
	case OpenDoor:
		return setDoorState(building, ev.DoorID, geometry.StateOpen)
	case TempCloseDoor:
		return setDoorState(building, ev.DoorID, geometry.StateTempClose)
	case CloseDoor:
		return setDoorState(building, ev.DoorID, geometry.StateClose)
	case ResetDoor:
		return setDoorState(building, ev.DoorID, geometry.StateOpen)
	case ActivateTrain:
		if ev.TrainType == nil {
			return simerr.NewEventError("activate train %s: missing train type", ev.TrainID)
		}
		return building.AddTrainDoors(ev.TrainID, ev.TrackID, ev.TrainType, ev.Offset, ev.Reversed, p.tracks)
	case DeactivateTrain:
		return building.RemoveTrainDoors(ev.TrainID)
	default:
		return simerr.NewEventError("unknown event kind %d", ev.Kind)
	}
}

func setDoorState(building *geometry.Building, id geometry.TransitionID, state geometry.DoorState) error {
	t, ok := building.Transition(id)
	if !ok {
		return simerr.NewEventError("unknown transition id %d", id)
	}
	t.State = state
	return nil
}
