// Package routing maps (agent, position, journey/stage) to a navigation
// line the operational model steers toward, with a cache invalidated by
// geometry-mutating events (§4.E).
package routing

import (
	"pedsim/internal/geometry"
)

// Strategy selects how a nav line is derived from an agent's position and
// target. ShortestPath routes through the door graph; FloorField targets
// the goal directly and is the strategy the operational model special-
// cases for oscillation prevention (§4.D step 1).
type Strategy int

const (
	ShortestPath Strategy = iota
	FloorField
)

// Resolution is what the router hands back to the tactical decision
// system for one agent this tick.
type Resolution struct {
	NavLine geometry.Segment
	Waiting bool
}

// Engine is the RoutingEngine: it holds a needsUpdate flag toggled by
// geometry-mutating events and rebuilds its door-graph cache lazily, once
// per tick, before any per-agent work happens.
type Engine struct {
	building *geometry.Building
	strategy Strategy

	needsUpdate bool
	graph       map[int][]edge // subroom id -> outgoing edges, excludes CLOSE doors
}

// New binds a RoutingEngine to a pre-built Building.
func New(building *geometry.Building, strategy Strategy) *Engine {
	e := &Engine{building: building, strategy: strategy}
	e.MarkDirty()
	return e
}

// MarkDirty flags the cache stale; called by the event processor whenever
// a door state transition or train activation/deactivation occurs.
func (e *Engine) MarkDirty() {
	e.needsUpdate = true
}

// NeedsUpdate reports whether a rebuild is pending.
func (e *Engine) NeedsUpdate() bool {
	return e.needsUpdate
}

// RebuildIfNeeded rebuilds the door-graph cache if the dirty flag is set,
// then clears it. Called once at the start of each tick, before the
// parallel operational step, per §5's read-only-during-the-tick guarantee.
func (e *Engine) RebuildIfNeeded() {
	if !e.needsUpdate {
		return
	}
	e.rebuild()
	e.needsUpdate = false
}

// Strategy reports which navigation strategy is active, read by the
// operational model to decide the oscillation-prevention branch.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Resolve returns the navigation line for an agent currently at pos, in
// subroom currentSubroom, heading for target (in subroom targetSubroom).
func (e *Engine) Resolve(pos geometry.Point, currentSubroom, targetSubroom int, target geometry.Point) Resolution {
	if currentSubroom == targetSubroom {
		return Resolution{NavLine: geometry.Segment{P1: target, P2: target}}
	}

	if e.strategy == FloorField {
		// Simplified gradient: point straight at the goal and let the
		// operational model's oscillation-prevention branch (§4.D step 1)
		// handle the case where a wall stands in the way. No waiting
		// signal is derived here since there is no door graph to detect
		// unreachability against; a real floor-field solver would flag
		// FINAL_DEST_OUT by way of the field never reaching the goal.
		return Resolution{NavLine: geometry.Segment{P1: target, P2: target}}
	}

	path := e.shortestPath(currentSubroom, targetSubroom)
	if len(path) == 0 {
		return Resolution{Waiting: true}
	}
	first := path[0]
	res := Resolution{NavLine: first.line()}
	if first.transition != nil && first.transition.State == geometry.StateTempClose && first.from == currentSubroom {
		res.Waiting = true
	}
	return res
}
