package testutil

import "sync"

// StepCounter numbers trace events in a scenario run.
//
// The first call to Next returns 1. Reset lets one counter serve several
// runs of the same scenario with identical numbering.
type StepCounter struct {
	mu sync.Mutex
	n  int64
}

// NewStepCounter returns a counter at 0.
func NewStepCounter() *StepCounter {
	return &StepCounter{}
}

// Next increments and returns the counter.
func (c *StepCounter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

// Current returns the counter without incrementing.
func (c *StepCounter) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset sets the counter back to 0.
func (c *StepCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
