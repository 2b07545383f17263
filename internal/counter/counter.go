// Package counter provides the atomic fetch-and-add counter used to mint
// unique identifiers across threads.
package counter

import "go.uber.org/atomic"

// Counter is a 32-bit word mutated only through atomic addition.
// The zero value is ready to use and starts at 0.
type Counter struct {
	v atomic.Uint32
}

// New returns a Counter starting at initial.
func New(initial uint32) *Counter {
	c := &Counter{}
	c.v.Store(initial)
	return c
}

// Increment atomically adds 1 and returns the value held before the add.
// Concurrent callers always observe distinct values.
func (c *Counter) Increment() uint32 {
	return c.v.Inc() - 1
}

// Add atomically adds delta and returns the value held before the add.
// The counter wraps on overflow.
func (c *Counter) Add(delta uint32) uint32 {
	return c.v.Add(delta) - delta
}

// Load returns the current value.
func (c *Counter) Load() uint32 {
	return c.v.Load()
}
