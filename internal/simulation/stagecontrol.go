package simulation

import (
	"pedsim/internal/agent"
	"pedsim/internal/simerr"
	"pedsim/internal/stage"
)

// NotifyWaitingSet releases agentID from a WaitingSet stage, surfacing
// Stage.Notify (§4.F) through the engine's runtime API.
func (s *Simulation) NotifyWaitingSet(stageID stage.ID, agentID agent.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stages[stageID]
	if !ok {
		return simerr.NewQueryError("notify waiting set: unknown stage id %d", stageID)
	}
	ws, ok := st.(*stage.WaitingSet)
	if !ok {
		return simerr.NewQueryError("notify waiting set: stage %d is not a WaitingSet", stageID)
	}
	ws.Notify(int(agentID))
	return nil
}

// PopQueue releases the head of a Queue stage, surfacing Stage.Pop (§4.F)
// through the engine's runtime API. ok is false if the queue was empty.
func (s *Simulation) PopQueue(stageID stage.ID) (agentID agent.ID, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, found := s.stages[stageID]
	if !found {
		return 0, false, simerr.NewQueryError("pop queue: unknown stage id %d", stageID)
	}
	q, isQueue := st.(*stage.Queue)
	if !isQueue {
		return 0, false, simerr.NewQueryError("pop queue: stage %d is not a Queue", stageID)
	}
	id, popped := q.Pop()
	return agent.ID(id), popped, nil
}
