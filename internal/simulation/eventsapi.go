package simulation

import (
	"pedsim/internal/events"
	"pedsim/internal/geometry"
)

// ScheduleOpenDoor queues an OpenDoor event (§4.H) for application at or
// after the given elapsed simulation time.
func (s *Simulation) ScheduleOpenDoor(at float64, doorID geometry.TransitionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Schedule(events.Event{Time: at, Kind: events.OpenDoor, DoorID: doorID})
}

// ScheduleTempCloseDoor queues a TempCloseDoor event.
func (s *Simulation) ScheduleTempCloseDoor(at float64, doorID geometry.TransitionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Schedule(events.Event{Time: at, Kind: events.TempCloseDoor, DoorID: doorID})
}

// ScheduleCloseDoor queues a CloseDoor event.
func (s *Simulation) ScheduleCloseDoor(at float64, doorID geometry.TransitionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Schedule(events.Event{Time: at, Kind: events.CloseDoor, DoorID: doorID})
}

// ScheduleResetDoor queues a ResetDoor event.
func (s *Simulation) ScheduleResetDoor(at float64, doorID geometry.TransitionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Schedule(events.Event{Time: at, Kind: events.ResetDoor, DoorID: doorID})
}

// ScheduleActivateTrain queues an ActivateTrain event.
func (s *Simulation) ScheduleActivateTrain(at float64, trainID, trackID string, tt *geometry.TrainType, offset float64, reversed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Schedule(events.Event{
		Time: at, Kind: events.ActivateTrain,
		TrainID: trainID, TrackID: trackID, TrainType: tt, Offset: offset, Reversed: reversed,
	})
}

// ScheduleDeactivateTrain queues a DeactivateTrain event.
func (s *Simulation) ScheduleDeactivateTrain(at float64, trainID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Schedule(events.Event{Time: at, Kind: events.DeactivateTrain, TrainID: trainID})
}
