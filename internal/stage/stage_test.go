package stage

import (
	"testing"

	"pedsim/internal/geometry"
)

func TestWaypointCompletion(t *testing.T) {
	w := &Waypoint{ID: 1, Position: geometry.Pt(10, 0), Distance: 0.5}
	if w.Completed(1, geometry.Pt(0, 0)) {
		t.Fatal("expected far agent to not complete waypoint")
	}
	if !w.Completed(1, geometry.Pt(10.2, 0)) {
		t.Fatal("expected agent within distance to complete waypoint")
	}
}

func TestExitCompletionRecordsRemoval(t *testing.T) {
	var removed []int
	e := &Exit{ID: 1, Polygon: geometry.NewPolygon(geometry.Pt(0, 0), geometry.Pt(2, 0), geometry.Pt(2, 2), geometry.Pt(0, 2)), RemovedAgents: &removed}

	if e.Completed(42, geometry.Pt(10, 10)) {
		t.Fatal("expected agent outside polygon to not complete")
	}
	if len(removed) != 0 {
		t.Fatal("expected no removal recorded yet")
	}
	if !e.Completed(42, geometry.Pt(1, 1)) {
		t.Fatal("expected agent inside polygon to complete")
	}
	if len(removed) != 1 || removed[0] != 42 {
		t.Fatalf("expected agent 42 recorded as removed, got %v", removed)
	}
}

func TestWaitingSetSlotLimit(t *testing.T) {
	w := NewWaitingSet(1, geometry.Point{}, 2)
	if !w.Enter(1) || !w.Enter(2) {
		t.Fatal("expected first two agents to be admitted")
	}
	if w.Enter(3) {
		t.Fatal("expected third agent to be refused at capacity")
	}
	if w.Occupancy() != 2 {
		t.Fatalf("expected occupancy 2, got %d", w.Occupancy())
	}

	w.Notify(1)
	if !w.Completed(1, geometry.Point{}) {
		t.Fatal("expected notified agent to be completed")
	}
	if w.Completed(2, geometry.Point{}) {
		t.Fatal("expected un-notified agent to remain waiting")
	}

	w.Leave(1)
	if !w.Enter(3) {
		t.Fatal("expected a freed slot to admit a new agent")
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(1, geometry.Point{}, 2)
	if !q.Enter(10) || !q.Enter(20) {
		t.Fatal("expected first two agents to enter")
	}
	if q.Enter(30) {
		t.Fatal("expected queue at capacity to refuse a third agent")
	}

	if q.Completed(10, geometry.Point{}) {
		t.Fatal("expected head agent to not be completed before Pop")
	}
	id, ok := q.Pop()
	if !ok || id != 10 {
		t.Fatalf("expected Pop to release agent 10, got %d, ok=%v", id, ok)
	}
	if !q.Completed(10, geometry.Point{}) {
		t.Fatal("expected popped agent to be completed")
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 agent left queued, got %d", q.Len())
	}
	if !q.Enter(30) {
		t.Fatal("expected freed slot to admit a new agent")
	}
}

func TestRoundRobinTransitionEvenSplit(t *testing.T) {
	rr, err := NewRoundRobinTransition([]WeightedStage{{StageID: 2, Weight: 1}, {StageID: 3, Weight: 1}})
	if err != nil {
		t.Fatal(err)
	}
	counts := map[ID]int{}
	cursor := 0
	for i := 0; i < 100; i++ {
		counts[rr.Next(&cursor)]++
	}
	if diff := counts[2] - counts[3]; diff > 1 || diff < -1 {
		t.Fatalf("expected round-robin counts to differ by at most 1, got %v", counts)
	}
}

func TestRoundRobinRejectsZeroWeight(t *testing.T) {
	if _, err := NewRoundRobinTransition([]WeightedStage{{StageID: 1, Weight: 0}}); err == nil {
		t.Fatal("expected zero weight to be rejected")
	}
}

func TestJourneyValidatesUnknownStageReference(t *testing.T) {
	stages := map[ID]Stage{1: &Waypoint{ID: 1, Position: geometry.Point{}, Distance: 1}}
	rules := map[ID]TransitionRule{1: FixedTransition{NextID: 99}}
	if _, err := NewJourney(1, stages, rules); err == nil {
		t.Fatal("expected journey construction to fail for unknown stage reference")
	}
}

func TestJourneyNextStageFollowsTransitionRules(t *testing.T) {
	stages := map[ID]Stage{
		1: &Waypoint{ID: 1, Position: geometry.Point{}, Distance: 1},
		2: &Waypoint{ID: 2, Position: geometry.Point{}, Distance: 1},
	}
	rules := map[ID]TransitionRule{
		1: FixedTransition{NextID: 2},
		2: NonTransition{Self: 2},
	}
	j, err := NewJourney(1, stages, rules)
	if err != nil {
		t.Fatal(err)
	}
	next, ok := j.NextStage(1)
	if !ok || next != 2 {
		t.Fatalf("expected next stage 2, got %d ok=%v", next, ok)
	}
	next, ok = j.NextStage(2)
	if !ok || next != 2 {
		t.Fatalf("expected terminal stage to stay put, got %d ok=%v", next, ok)
	}
}
