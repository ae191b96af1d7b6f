package input

import (
	"context"
	"sync/atomic"
	"time"
)

// Button is a momentary push button read as a level.
type Button interface {
	Pressed() bool
}

// ButtonFunc adapts a function to Button, e.g. a pin read.
type ButtonFunc func() bool

func (f ButtonFunc) Pressed() bool { return f() }

// Latch is a button pressed from another goroutine, such as a GUI callback.
// Every Press is reported by exactly one Pressed call.
type Latch struct {
	pending atomic.Int32
}

// Press records a press.
func (l *Latch) Press() { l.pending.Add(1) }

// Pressed consumes one recorded press.
func (l *Latch) Pressed() bool {
	for {
		n := l.pending.Load()
		if n == 0 {
			return false
		}
		if l.pending.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Edge reports presses, not levels: a held button fires once.
type Edge struct {
	b    Button
	last bool
}

// NewEdge creates an edge detector. A button already held when the detector
// is created has to be released before it fires.
func NewEdge(b Button) *Edge {
	return &Edge{b: b, last: b.Pressed()}
}

// Fired polls the button and reports a release-to-press transition.
func (e *Edge) Fired() bool {
	now := e.b.Pressed()
	fired := now && !e.last
	e.last = now
	return fired
}

// WaitPress polls b every interval until it is pressed or ctx is done.
func WaitPress(ctx context.Context, b Button, interval time.Duration) error {
	edge := NewEdge(b)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if edge.Fired() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Action is what the operator asked for on the button pad.
type Action int

const (
	None Action = iota
	Up
	Down
	Select
)

func (a Action) String() string {
	switch a {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Select:
		return "SEL"
	default:
		return "NONE"
	}
}

// Pad is the three-button front panel: UP, DOWN and SEL.
type Pad struct {
	up, down, sel *Edge
	selButton     Button
}

// NewPad creates a pad from its three buttons.
func NewPad(up, down, sel Button) *Pad {
	return &Pad{
		up:        NewEdge(up),
		down:      NewEdge(down),
		sel:       NewEdge(sel),
		selButton: sel,
	}
}

// Poll samples every button once and returns the first that fired, in the
// order UP, DOWN, SEL.
func (p *Pad) Poll() Action {
	up, down, sel := p.up.Fired(), p.down.Fired(), p.sel.Fired()
	switch {
	case up:
		return Up
	case down:
		return Down
	case sel:
		return Select
	}
	return None
}

// SelectButton returns the SEL button, used for confirmation prompts.
func (p *Pad) SelectButton() Button {
	return p.selButton
}
