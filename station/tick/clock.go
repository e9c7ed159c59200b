// Package tick is the sampling scheduler: one counter per range, advanced by
// the 1 ms tick source and consumed by the main loop.
package tick

import (
	"sync/atomic"

	"co2scope/station/ranges"
)

// Clock is the only state shared between the tick source and the main loop.
// Every access is a single atomic operation, so the tick side never blocks.
type Clock struct {
	counters   [ranges.Count]atomic.Uint32
	thresholds [ranges.Count]uint32
}

// NewClock creates a clock with all counters at zero.
func NewClock(thresholds [ranges.Count]uint32) *Clock {
	return &Clock{thresholds: thresholds}
}

// OnTick advances every counter by one tick.
func (c *Clock) OnTick() {
	for i := range c.counters {
		c.counters[i].Add(1)
	}
}

// Elapse advances every counter by n ticks at once.
func (c *Clock) Elapse(n uint32) {
	if n == 0 {
		return
	}
	for i := range c.counters {
		c.counters[i].Add(n)
	}
}

// TakeAndMaybeReset returns the counter of range i and resets it to zero when
// it exceeds the range threshold; otherwise it returns 0 and leaves the
// counter alone. A tick that lands between the read and the reset makes the
// swap fail and the read is retried, so it is never lost.
func (c *Clock) TakeAndMaybeReset(i int) uint32 {
	if i < 0 || i >= len(c.counters) {
		return 0
	}
	ctr := &c.counters[i]
	for {
		v := ctr.Load()
		if v <= c.thresholds[i] {
			return 0
		}
		if ctr.CompareAndSwap(v, 0) {
			return v
		}
	}
}

// Force makes the next TakeAndMaybeReset of range i fire.
func (c *Clock) Force(i int) {
	if i < 0 || i >= len(c.counters) {
		return
	}
	c.counters[i].Store(c.thresholds[i] + 1)
}

// Count returns the current counter of range i.
func (c *Clock) Count(i int) uint32 {
	if i < 0 || i >= len(c.counters) {
		return 0
	}
	return c.counters[i].Load()
}

// Threshold returns the per-column tick budget of range i.
func (c *Clock) Threshold(i int) uint32 {
	if i < 0 || i >= len(c.thresholds) {
		return 0
	}
	return c.thresholds[i]
}
