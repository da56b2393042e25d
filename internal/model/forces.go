package model

import (
	"math"

	"pedsim/internal/agent"
	"pedsim/internal/geometry"
	"pedsim/internal/simerr"
)

// forceRepPed implements §4.D step 3: pedestrian repulsion summed over
// every neighbor, using the agent's own profile collision distance l.
func (m *Model) forceRepPed(in Input, profile agent.Profile) (geometry.Point, error) {
	l := profile.CollisionDistance()
	var r geometry.Point
	for _, n := range in.Neighbors {
		d := in.Pos.Distance(n.Pos)
		if d < epsCoincident {
			return geometry.Point{}, simerr.NewInvariantViolation("coincident agents detected at distance %.6g (< %.6g)", d, epsCoincident)
		}
		eij := n.Pos.Sub(in.Pos).Scale(1 / d)
		magnitude := -m.aPed * math.Exp((l-d)/m.dPed)
		r = r.Add(eij.Scale(magnitude))
	}
	return r, nil
}

// forceRepWall implements §4.D step 4: wall repulsion over every wall,
// obstacle edge, and closed/temp-closed transition of the agent's
// subroom, with the near-wall centroid fallback and the near-goal zero
// rule. l is the acting agent's own body radius (profile.BMax), which
// shifts the exponential's rollover point the same way it does for
// forceRepPed's collision distance.
func (m *Model) forceRepWall(in Input, l float64) geometry.Point {
	if in.NavLine.DistToSquare(in.Pos) < epsGoal*epsGoal {
		return geometry.Point{}
	}

	var r geometry.Point
	for _, wall := range in.Walls {
		pt := wall.ShortestPoint(in.Pos)
		d := in.Pos.Distance(pt)

		var eiw geometry.Point
		if d <= epsWallNear {
			if in.InsideSubroom {
				eiw = in.SubroomCentroid.Sub(in.Pos)
			} else {
				eiw = in.Pos.Sub(in.SubroomCentroid)
			}
			if eiw.NormSquare() == 0 {
				continue
			}
			eiw = eiw.Normalized()
		} else {
			eiw = pt.Sub(in.Pos).Scale(1 / d)
		}

		magnitude := -m.aWall * math.Exp((l-d)/m.dWall)
		r = r.Add(eiw.Scale(magnitude))
	}
	return r
}

// computeSpacing implements §4.D step 6: the minimum distance to any
// neighbor that lies ahead of the candidate direction and within the
// collision-distance cone, or noNeighborSpacing if none qualify. dir is
// the unnormalized candidate direction (e0 + repPed + repWall). The
// ahead test depends only on dir's direction, but the cone test compares
// |perp(dir)·e_ij|, which scales with |dir|, against l/d, so dir's
// magnitude changes the cone's width.
func computeSpacing(neighbors []Neighbor, pos, dir geometry.Point, l float64) float64 {
	perp := dir.Rotate90()
	spacing := noNeighborSpacing
	for _, n := range neighbors {
		d := pos.Distance(n.Pos)
		if d == 0 {
			continue
		}
		eij := n.Pos.Sub(pos).Scale(1 / d)
		if dir.Dot(eij) < 0 {
			continue
		}
		if math.Abs(perp.Dot(eij)) > l/d {
			continue
		}
		if d < spacing {
			spacing = d
		}
	}
	return spacing
}
