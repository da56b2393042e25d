// Package model implements the VelocityModel variant of OperationalModel
// (§4.D): the per-tick force/velocity integration that turns an agent's
// desired direction, neighbors, and surrounding walls into a new position.
package model

import (
	"math"

	"pedsim/internal/agent"
	"pedsim/internal/geometry"
	"pedsim/internal/routing"
	"pedsim/internal/simerr"
)

const (
	epsV         = 1e-6   // orientation/velocity considered zero below this
	epsGoal      = 0.5    // distance-to-exit-line threshold for e0 switching
	epsCoincident = 1e-3  // agents closer than this are a hard error
	epsWallNear  = 1e-3   // 1mm: fall back to centroid direction below this
	noNeighborSpacing = 100.0
)

// Model holds the global force coefficients shared by every profile; the
// per-agent parameters (v0, T, bmax) live on agent.Profile.
type Model struct {
	aPed, dPed   float64
	aWall, dWall float64
}

// New builds a VelocityModel from its four global coefficients. All must
// be strictly positive.
func New(aPed, dPed, aWall, dWall float64) (*Model, error) {
	if aPed <= 0 || dPed <= 0 || aWall <= 0 || dWall <= 0 {
		return nil, simerr.NewConfigError("operational model coefficients must be positive, got aPed=%v dPed=%v aWall=%v dWall=%v", aPed, dPed, aWall, dWall)
	}
	return &Model{aPed: aPed, dPed: dPed, aWall: aWall, dWall: dWall}, nil
}

// Neighbor is one other agent's state as seen during this agent's step.
type Neighbor struct {
	Pos  geometry.Point
	BMax float64
}

// Input bundles everything the operational step needs for one agent,
// assembled by the simulation loop from the pre-tick snapshot.
type Input struct {
	Pos         geometry.Point
	Orientation geometry.Point
	LastE0      geometry.Point
	ProfileID   int

	Neighbors []Neighbor

	// Walls are every wall/obstacle edge of the agent's current subroom,
	// plus the line of every CLOSED or TEMP_CLOSED transition bordering
	// it (§4.D step 4).
	Walls             []geometry.Segment
	SubroomCentroid   geometry.Point
	InsideSubroom     bool

	NavLine  geometry.Segment
	Strategy routing.Strategy
	Waiting  bool

	InPremovement bool
	DT            float64
}

// Output is the new per-agent state after one operational step.
type Output struct {
	Pos         geometry.Point
	Velocity    geometry.Point
	Orientation geometry.Point
	E0          geometry.Point
	Speed       float64
}

// Step runs the 8-step VelocityModel algorithm for one agent against the
// given Profile. It is a pure function of its inputs: the simulation loop
// calls it once per agent per tick against the pre-tick snapshot and
// writes the Output into a parallel buffer, never mutating shared state
// (§5's single-linearization-point discipline).
func (m *Model) Step(in Input, profile agent.Profile) (Output, error) {
	e0 := computeE0(in)

	if in.Waiting {
		e0 = geometry.Point{}
	}

	rPed, err := m.forceRepPed(in, profile)
	if err != nil {
		return Output{}, err
	}
	rWall := m.forceRepWall(in, profile.BMax)

	d := e0.Add(rPed).Add(rWall)
	dNorm := d.Norm()
	if math.IsNaN(dNorm) || math.IsInf(dNorm, 0) {
		return Output{}, simerr.NewInvariantViolation("non-finite candidate direction for agent with profile %d", profile.ID)
	}

	if dNorm < epsV {
		// No net drive this tick (forces and desired direction canceled
		// out exactly). Stay put rather than divide by zero.
		return Output{Pos: in.Pos, Orientation: in.Orientation, E0: e0}, nil
	}

	l := profile.CollisionDistance()
	spacing := computeSpacing(in.Neighbors, in.Pos, d, l)

	speed := clamp((spacing-l)/profile.T, 0, profile.V0)
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return Output{}, simerr.NewInvariantViolation("non-finite optimal speed for agent with profile %d", profile.ID)
	}

	vel := d.Scale(speed / dNorm)
	out := Output{E0: e0, Speed: speed}

	if !in.InPremovement {
		out.Pos = in.Pos.Add(vel.Scale(in.DT))
		out.Velocity = vel
	} else {
		out.Pos = in.Pos
		out.Velocity = geometry.Point{}
	}

	if out.Velocity.Norm() >= epsV {
		out.Orientation = out.Velocity.Normalized()
	} else {
		out.Orientation = in.Orientation
	}
	return out, nil
}

// computeE0 implements §4.D step 1.
func computeE0(in Input) geometry.Point {
	if in.Strategy == routing.FloorField {
		target := in.NavLine.Midpoint()
		raw := target.Sub(in.Pos)
		if raw.NormSquare() < 0.25 && !in.Waiting {
			return in.LastE0
		}
		if raw.NormSquare() == 0 {
			return in.LastE0
		}
		return raw.Normalized()
	}

	target := in.NavLine.Midpoint()
	distToExitLine := in.NavLine.DistTo(in.Pos)
	if distToExitLine > epsGoal {
		dir := target.Sub(in.Pos)
		if dir.NormSquare() == 0 {
			return in.LastE0
		}
		return dir.Normalized()
	}
	return in.LastE0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
