package meter

import (
	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/Tamagotono/CycleTester/pkg/sample"
)

// Chain feeds the writes on an output into a meter:
// tap -> converter -> [averaging] -> meter.
type Chain struct {
	// Output is the watched output. Drive the test through it.
	Output output.Output

	tap  *sample.Tap
	done chan struct{} // Closed when the meter goroutine exits
}

// Attach starts a chain on out. average > 0 smooths phases over that many
// samples before the meter sees them.
func Attach(out output.Output, m *Meter, average int) *Chain {
	// Large buffers so a fast test never stalls the pulse loop.
	c := &Chain{
		tap:  sample.NewTap(1000),
		done: make(chan struct{}),
	}
	c.Output = output.Watch(out, c.tap.Record)

	stream := sample.NewConverter(500)(c.tap.Transitions())
	if average > 0 {
		stream = sample.NewAveragingConverter(average, 500)(stream)
	}

	m.ResetShutdown()
	go func() {
		defer close(c.done)
		m.ProcessSamples(stream)
	}()
	return c
}

// Close drains the chain and returns how many writes the tap had to drop.
func (c *Chain) Close() int {
	c.tap.Close()
	<-c.done
	return c.tap.Dropped()
}
