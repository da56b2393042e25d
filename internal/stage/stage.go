// Package stage implements the stage types a Journey is built from
// (Waypoint, Exit, WaitingSet, Queue) and their completion predicates
// (§4.F).
package stage

import "pedsim/internal/geometry"

// ID identifies a stage within a journey's stage map.
type ID int

// Stage is the common interface every stage kind satisfies. The tactical
// decision system reads TargetPoint every tick; the strategic decision
// system reads Completed once per tick to decide whether to advance the
// agent's journey.
type Stage interface {
	StageID() ID
	TargetPoint() geometry.Point
	Completed(agentID int, pos geometry.Point) bool
}

// Waypoint completes once the agent is within Distance of Position.
type Waypoint struct {
	ID       ID
	Position geometry.Point
	Distance float64
}

func (w *Waypoint) StageID() ID                  { return w.ID }
func (w *Waypoint) TargetPoint() geometry.Point  { return w.Position }
func (w *Waypoint) Completed(_ int, pos geometry.Point) bool {
	return pos.Distance(w.Position) <= w.Distance
}

// Exit completes once the agent's position is inside Polygon. Reaching an
// Exit removes the agent from the simulation; RemovedAgents accumulates
// the ids of agents that completed an Exit stage this tick.
type Exit struct {
	ID            ID
	Polygon       geometry.Polygon
	RemovedAgents *[]int
}

func (e *Exit) StageID() ID                 { return e.ID }
func (e *Exit) TargetPoint() geometry.Point { return e.Polygon.Centroid() }
func (e *Exit) Completed(agentID int, pos geometry.Point) bool {
	if !e.Polygon.Contains(pos) {
		return false
	}
	if e.RemovedAgents != nil {
		*e.RemovedAgents = append(*e.RemovedAgents, agentID)
	}
	return true
}

// WaitingSet gates up to Slots agents at once; an agent's completion is
// signaled externally by Notify, not by position.
type WaitingSet struct {
	ID    ID
	Point geometry.Point
	Slots int

	occupants map[int]bool
	released  map[int]bool
}

func NewWaitingSet(id ID, point geometry.Point, slots int) *WaitingSet {
	return &WaitingSet{ID: id, Point: point, Slots: slots, occupants: map[int]bool{}, released: map[int]bool{}}
}

func (w *WaitingSet) StageID() ID                 { return w.ID }
func (w *WaitingSet) TargetPoint() geometry.Point { return w.Point }

// Enter admits agentID if there is a free slot. Returns false if the set
// is at capacity; the agent is then not held by the set, and Notify has no
// effect on it until a later Enter admits it.
func (w *WaitingSet) Enter(agentID int) bool {
	if w.occupants[agentID] {
		return true
	}
	if len(w.occupants) >= w.Slots {
		return false
	}
	w.occupants[agentID] = true
	return true
}

// Notify marks agentID as released; it will complete on the next check.
func (w *WaitingSet) Notify(agentID int) {
	if w.occupants[agentID] {
		w.released[agentID] = true
	}
}

// Leave frees agentID's slot once it has transitioned out.
func (w *WaitingSet) Leave(agentID int) {
	delete(w.occupants, agentID)
	delete(w.released, agentID)
}

// Occupancy returns the number of agents currently held.
func (w *WaitingSet) Occupancy() int {
	return len(w.occupants)
}

func (w *WaitingSet) Completed(agentID int, _ geometry.Point) bool {
	return w.released[agentID]
}

// Queue is a FIFO admission stage: up to Slots agents may be queued; the
// head completes only once Pop is invoked.
type Queue struct {
	ID    ID
	Point geometry.Point
	Slots int

	order    []int
	position map[int]int
	released map[int]bool
}

func NewQueue(id ID, point geometry.Point, slots int) *Queue {
	return &Queue{ID: id, Point: point, Slots: slots, position: map[int]int{}, released: map[int]bool{}}
}

func (q *Queue) StageID() ID                 { return q.ID }
func (q *Queue) TargetPoint() geometry.Point { return q.Point }

// Enter appends agentID to the tail of the queue if there is room.
func (q *Queue) Enter(agentID int) bool {
	if _, ok := q.position[agentID]; ok {
		return true
	}
	if len(q.order) >= q.Slots {
		return false
	}
	q.position[agentID] = len(q.order)
	q.order = append(q.order, agentID)
	return true
}

// Pop releases the agent currently at the head of the queue, if any, and
// returns its id.
func (q *Queue) Pop() (int, bool) {
	if len(q.order) == 0 {
		return 0, false
	}
	head := q.order[0]
	q.order = q.order[1:]
	delete(q.position, head)
	for id, pos := range q.position {
		q.position[id] = pos - 1
	}
	q.released[head] = true
	return head, true
}

// Leave clears an agent's released marker once it has transitioned out,
// and frees its slot if it is still queued (e.g. removed before Pop).
func (q *Queue) Leave(agentID int) {
	delete(q.released, agentID)
	idx, ok := q.position[agentID]
	if !ok {
		return
	}
	q.order = append(q.order[:idx], q.order[idx+1:]...)
	delete(q.position, agentID)
	for id, pos := range q.position {
		if pos > idx {
			q.position[id] = pos - 1
		}
	}
}

// Len returns the number of agents currently queued.
func (q *Queue) Len() int {
	return len(q.order)
}

func (q *Queue) Completed(agentID int, _ geometry.Point) bool {
	return q.released[agentID]
}
