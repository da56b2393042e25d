// Package clock provides the engine's monotonic tick counter.
package clock

// Clock is a monotonic iteration counter with a fixed step. It is advanced
// exactly once per tick, as the final step of Iterate (§4.C).
type Clock struct {
	dT   float64
	iter uint64
}

// New creates a clock with the given fixed time step.
func New(dT float64) *Clock {
	return &Clock{dT: dT}
}

// DT returns the fixed step size.
func (c *Clock) DT() float64 {
	return c.dT
}

// Iteration returns the current iteration count.
func (c *Clock) Iteration() uint64 {
	return c.iter
}

// ElapsedTime returns iteration * dT.
func (c *Clock) ElapsedTime() float64 {
	return float64(c.iter) * c.dT
}

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() {
	c.iter++
}
