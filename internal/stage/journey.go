package stage

import "pedsim/internal/simerr"

// JourneyID identifies a Journey.
type JourneyID int

// node pairs a stage with the rule that picks what comes after it.
type node struct {
	stage  Stage
	rule   TransitionRule
	cursor int // round-robin state, owned by the journey per §4.F
}

// Journey is a directed transition graph over stage ids: a map from stage
// id to (stage, transition rule). Created via AddJourney before the
// simulation starts and read-only thereafter, except for each stage's own
// internal state (WaitingSet/Queue occupancy, round-robin cursors).
type Journey struct {
	ID    JourneyID
	nodes map[ID]*node
}

// NewJourney builds a Journey from a stage id -> (stage, rule) map,
// validating that every rule's referenced stage ids exist and that every
// round-robin weight is a positive integer (§3 Journey invariant).
func NewJourney(id JourneyID, stages map[ID]Stage, rules map[ID]TransitionRule) (*Journey, error) {
	known := make(map[ID]bool, len(stages))
	for sid := range stages {
		known[sid] = true
	}
	nodes := make(map[ID]*node, len(stages))
	for sid, s := range stages {
		rule, ok := rules[sid]
		if !ok {
			return nil, simerr.NewConfigError("journey %d: stage %d has no transition rule", id, sid)
		}
		if err := rule.Validate(known); err != nil {
			return nil, err
		}
		nodes[sid] = &node{stage: s, rule: rule}
	}
	return &Journey{ID: id, nodes: nodes}, nil
}

// ContainsStage reports whether id is part of this journey.
func (j *Journey) ContainsStage(id ID) bool {
	_, ok := j.nodes[id]
	return ok
}

// Stage returns the stage for id.
func (j *Journey) Stage(id ID) (Stage, bool) {
	n, ok := j.nodes[id]
	if !ok {
		return nil, false
	}
	return n.stage, true
}

// NextStage applies the transition rule for the current stage, advancing
// any round-robin cursor it owns.
func (j *Journey) NextStage(current ID) (ID, bool) {
	n, ok := j.nodes[current]
	if !ok {
		return 0, false
	}
	return n.rule.Next(&n.cursor), true
}
