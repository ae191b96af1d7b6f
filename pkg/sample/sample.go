// Package sample turns the level writes seen on an output into measured
// phases: how long the output actually stayed high or low.
package sample

import (
	"log"
	"sync"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
)

// Sample is one completed phase of the output.
type Sample struct {
	Timestamp time.Time // Start of the phase
	Phase     pulse.Phase
	Width     time.Duration
}

// End returns when the phase ended.
func (s Sample) End() time.Time {
	return s.Timestamp.Add(s.Width)
}

// Converter is a function type that converts a transition channel to a
// Sample channel.
type Converter func(in <-chan output.Transition) <-chan Sample

// NewConverter creates a converter that emits a Sample every time the level
// changes. Writes that repeat the current level extend the phase.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan output.Transition) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var last output.Transition
			started := false
			for t := range in {
				if !started {
					last, started = t, true
					continue
				}
				if t.High == last.High {
					continue
				}

				s := Sample{
					Timestamp: last.At,
					Phase:     phaseOf(last.High),
					Width:     t.At.Sub(last.At),
				}
				last = t

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

func phaseOf(high bool) pulse.Phase {
	if high {
		return pulse.PhaseOn
	}
	return pulse.PhaseOff
}

// Tap feeds output writes into a transition channel. Its Record method fits
// output.Watch and output.Mock.OnChange. Writes are dropped, never blocked
// on, when the channel is full so the pulse loop keeps its timing.
type Tap struct {
	mu      sync.Mutex
	ch      chan output.Transition
	closed  bool
	dropped int
	now     func() time.Time
}

// NewTap creates a tap with room for bufSize pending transitions.
func NewTap(bufSize int) *Tap {
	if bufSize <= 0 {
		bufSize = 100
	}
	return &Tap{
		ch:  make(chan output.Transition, bufSize),
		now: time.Now,
	}
}

// Record timestamps a write and queues it.
func (t *Tap) Record(high bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.ch <- output.Transition{At: t.now(), High: high}:
	default:
		t.dropped++
	}
}

// Transitions returns the channel of recorded writes. It is closed by Close.
func (t *Tap) Transitions() <-chan output.Transition {
	return t.ch
}

// Dropped returns how many writes did not fit in the channel.
func (t *Tap) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Close stops recording and closes the channel. It is safe to call twice.
func (t *Tap) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.ch)
}
