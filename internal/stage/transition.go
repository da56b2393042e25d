package stage

import "pedsim/internal/simerr"

// WeightedStage is one branch of a RoundRobinTransition.
type WeightedStage struct {
	StageID ID
	Weight  uint64
}

// TransitionRule selects the next stage once the current one completes.
type TransitionRule interface {
	// Next returns the next stage id for the given journey-local
	// round-robin cursor state, possibly advancing it.
	Next(cursor *int) ID
	// Validate checks that every referenced stage id exists in stages.
	Validate(stages map[ID]bool) error
}

// NonTransition marks a terminal stage: the agent stays on it forever
// (used for Exit stages and other dead ends).
type NonTransition struct {
	Self ID
}

func (t NonTransition) Next(_ *int) ID { return t.Self }
func (t NonTransition) Validate(stages map[ID]bool) error {
	if !stages[t.Self] {
		return simerr.NewConfigError("non-transition references unknown stage %d", t.Self)
	}
	return nil
}

// FixedTransition always advances to the same next stage.
type FixedTransition struct {
	NextID ID
}

func (t FixedTransition) Next(_ *int) ID { return t.NextID }
func (t FixedTransition) Validate(stages map[ID]bool) error {
	if !stages[t.NextID] {
		return simerr.NewConfigError("fixed transition references unknown stage %d", t.NextID)
	}
	return nil
}

// RoundRobinTransition cycles through WeightedStages in proportion to
// their weights; state (the cursor) is stored on the journey, not here.
type RoundRobinTransition struct {
	WeightedStages []WeightedStage
	totalWeight    uint64
}

// NewRoundRobinTransition validates weights are positive and precomputes
// the total weight used by Next.
func NewRoundRobinTransition(stages []WeightedStage) (*RoundRobinTransition, error) {
	var total uint64
	for _, s := range stages {
		if s.Weight == 0 {
			return nil, simerr.NewConfigError("round-robin weights must be positive, got 0 for stage %d", s.StageID)
		}
		total += s.Weight
	}
	if total == 0 {
		return nil, simerr.NewConfigError("round-robin transition has no stages")
	}
	return &RoundRobinTransition{WeightedStages: stages, totalWeight: total}, nil
}

// Next picks the next stage by weighted round robin: cursor counts total
// selections made so far; it is reduced modulo totalWeight and walked
// against cumulative weights so weight-N stages are chosen N times out of
// every totalWeight picks, in order.
func (t *RoundRobinTransition) Next(cursor *int) ID {
	pos := uint64(*cursor) % t.totalWeight
	*cursor++
	var cum uint64
	for _, s := range t.WeightedStages {
		cum += s.Weight
		if pos < cum {
			return s.StageID
		}
	}
	return t.WeightedStages[len(t.WeightedStages)-1].StageID
}

func (t *RoundRobinTransition) Validate(stages map[ID]bool) error {
	if len(t.WeightedStages) == 0 {
		return simerr.NewConfigError("round-robin transition has no stages")
	}
	for _, s := range t.WeightedStages {
		if s.Weight == 0 {
			return simerr.NewConfigError("round-robin weights must be positive, got 0 for stage %d", s.StageID)
		}
		if !stages[s.StageID] {
			return simerr.NewConfigError("round-robin transition references unknown stage %d", s.StageID)
		}
	}
	return nil
}
