// Package neighbor implements the uniform-grid spatial index used for
// per-tick radius queries over agent positions.
package neighbor

import (
	"fmt"
	"math"

	"pedsim/internal/geometry"
)

// Point is anything with a position and an ID. The grid is
// generic over this so both the engine's Agent type and tests can use it.
type Point interface {
	ID() int
	Pos() geometry.Point
}

type cellKey struct {
	cx, cy int64
}

// Grid is a uniform-grid spatial index over agent positions, rebuilt from
// scratch once per tick (§4.B).
type Grid struct {
	cellSize float64
	origin   geometry.Point
	cells    map[cellKey][]Point
	byID     map[int]Point
}

// NewGrid creates a grid with the given cell size. cellSize must be at
// least as large as the largest interaction radius used by any profile
// (distEffMaxPed); this is checked by the caller at init, per §4.B.
func NewGrid(cellSize float64, origin geometry.Point) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("neighbor: cell size must be positive, got %v", cellSize)
	}
	return &Grid{
		cellSize: cellSize,
		origin:   origin,
		cells:    make(map[cellKey][]Point),
		byID:     make(map[int]Point),
	}, nil
}

// CheckCellSize fails fast if cellSize is smaller than the largest radius
// any query will use, per the §4.B correctness requirement.
func CheckCellSize(cellSize, distEffMaxPed float64) error {
	if cellSize < distEffMaxPed {
		return fmt.Errorf("neighbor: cell size %v smaller than distEffMaxPed %v", cellSize, distEffMaxPed)
	}
	return nil
}

func (g *Grid) key(p geometry.Point) cellKey {
	return cellKey{
		cx: int64(math.Floor((p.X - g.origin.X) / g.cellSize)),
		cy: int64(math.Floor((p.Y - g.origin.Y) / g.cellSize)),
	}
}

// Rebuild discards the prior index and buckets every agent by its current
// position. O(N).
func (g *Grid) Rebuild(agents []Point) {
	for k := range g.cells {
		delete(g.cells, k)
	}
	for k := range g.byID {
		delete(g.byID, k)
	}
	for _, a := range agents {
		k := g.key(a.Pos())
		g.cells[k] = append(g.cells[k], a)
		g.byID[a.ID()] = a
	}
}

// Neighbours returns every agent whose position is within r of p, with no
// false negatives; candidates are drawn from the disk's overlapping cells
// and filtered by exact distance so there are no false positives either.
func (g *Grid) Neighbours(p geometry.Point, r float64) []Point {
	minCX := int64(math.Floor((p.X - r - g.origin.X) / g.cellSize))
	maxCX := int64(math.Floor((p.X + r - g.origin.X) / g.cellSize))
	minCY := int64(math.Floor((p.Y - r - g.origin.Y) / g.cellSize))
	maxCY := int64(math.Floor((p.Y + r - g.origin.Y) / g.cellSize))

	var out []Point
	r2 := r * r
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for _, a := range g.cells[cellKey{cx, cy}] {
				if a.Pos().Sub(p).NormSquare() <= r2 {
					out = append(out, a)
				}
			}
		}
	}
	return out
}

// Get looks up a single agent by ID, as indexed at the last Rebuild.
func (g *Grid) Get(id int) (Point, bool) {
	p, ok := g.byID[id]
	return p, ok
}
