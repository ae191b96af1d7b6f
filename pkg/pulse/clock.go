package pulse

import (
	"sync"
	"time"
)

// Clock is the monotonic time source polled by the scheduler.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now, which carries a monotonic reading on both Go
// and TinyGo.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a deterministic clock for tests and dry runs. Every call to
// Now advances it by Step, which models the cost of one poll of a busy loop.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewManualClock creates a clock that advances by step on every read.
func NewManualClock(step time.Duration) *ManualClock {
	return &ManualClock{
		now:  time.Unix(0, 0),
		Step: step,
	}
}

// Now returns the current reading and then advances by Step.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Advance moves the clock forward by d, e.g. to model a slow display redraw.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Peek returns the current reading without advancing.
func (c *ManualClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
