package interop

import "sync"

// CounterStart is the counter value before the first increment.
const CounterStart = 0.5

// Counter is the per-instance state of the numeric incrementer.
// The zero value starts at CounterStart.
type Counter struct {
	mu    sync.Mutex
	steps float64
}

// Increment bumps the counter by one and returns x plus the new value.
func (c *Counter) Increment(x float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.steps++
	return x + (CounterStart + c.steps)
}

// Value returns the current counter value.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CounterStart + c.steps
}
