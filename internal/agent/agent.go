// Package agent defines the mobile entity the engine simulates, and the
// per-profile operational-model parameters assigned to it.
package agent

import (
	"math"

	"pedsim/internal/geometry"
)

// ID identifies an agent for the lifetime of its existence in a
// simulation. IDs are never reused while the agent they named is alive.
type ID int

// Profile is a named bundle of operational-model coefficients: desired
// speed, time gap, and body size. Selected per-agent so a single
// simulation can mix pedestrian types.
type Profile struct {
	ID   int
	V0   float64 // desired (maximum) speed
	T    float64 // time gap used by the optimal-speed function
	BMax float64 // larger semi-axis of the body ellipse
}

// CollisionDistance returns l = 2*BMax, the distance used throughout the
// operational model as the agent's effective diameter.
func (p Profile) CollisionDistance() float64 {
	return 2 * p.BMax
}

// Agent is a mobile entity with a position, orientation, speed, and a
// journey/stage it is pursuing (§3 DATA MODEL).
type Agent struct {
	ID  ID
	Pos geometry.Point

	// Orientation is a unit vector whenever Speed > epsilon (an
	// invariant enforced by the operational model, which only updates
	// it when the new velocity is above the threshold).
	Orientation geometry.Point
	Speed       float64

	// E0 is the desired direction computed by the operational model
	// each tick; zero while the agent is waiting.
	E0            geometry.Point
	SmoothTurning bool

	PremovementEnd float64

	JourneyID int
	StageID   int
	Waiting   bool

	NavLine    geometry.Segment
	HasNavLine bool

	ProfileID int
}

// InPremovement reports whether, at the given elapsed simulation time, the
// agent has not yet reached its premovement end and so must not move.
func (a *Agent) InPremovement(elapsed float64) bool {
	return elapsed < a.PremovementEnd
}

// Validate checks the per-agent invariants from §3 DATA MODEL: a
// normalized orientation whenever moving, and a positive body radius.
func (a *Agent) Validate(bmax float64) error {
	if bmax <= 0 {
		return errInvalidBodyRadius
	}
	if a.Speed > epsV {
		n := a.Orientation.NormSquare()
		if math.Abs(n-1) > 1e-6 {
			return errOrientationNotUnit
		}
	}
	return nil
}

const epsV = 1e-6

var (
	errInvalidBodyRadius  = simpleError("agent: body radius must be positive")
	errOrientationNotUnit = simpleError("agent: orientation must be a unit vector while moving")
)

type simpleError string

func (e simpleError) Error() string { return string(e) }
