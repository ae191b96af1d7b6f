package pulse

// Counter tracks completed ON+OFF pairs of a running test.
type Counter struct {
	Completed int
	Total     int
}

// NewCounter creates a counter for a test of total cycles.
func NewCounter(total int) *Counter {
	return &Counter{Total: total}
}

// Increment records one completed cycle. It never counts past Total.
func (c *Counter) Increment() {
	if c.Completed < c.Total {
		c.Completed++
	}
}

// Done reports whether every cycle has completed.
func (c *Counter) Done() bool {
	return c.Completed >= c.Total
}

// Remaining returns the number of cycles left.
func (c *Counter) Remaining() int {
	if c.Completed >= c.Total {
		return 0
	}
	return c.Total - c.Completed
}
