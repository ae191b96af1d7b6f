package pulse

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/output"
)

const (
	// DefaultRefreshInterval is the fastest rate the LCD can be redrawn.
	// Do not go below this or the display will not keep up.
	DefaultRefreshInterval = 56 * time.Millisecond
	// DefaultMargin is the time that must remain before a phase deadline for
	// a display refresh to be allowed to start.
	DefaultMargin = 55 * time.Millisecond
	// DefaultOverrunTolerance is how late a phase may end before it is
	// reported as an overrun.
	DefaultOverrunTolerance = 2 * time.Millisecond
)

// ErrInterrupted is returned when Interrupt asked the scheduler to stop.
var ErrInterrupted = errors.New("pulse test interrupted")

// Phase is one half of a cycle.
type Phase int

const (
	PhaseOn Phase = iota
	PhaseOff
)

func (p Phase) String() string {
	if p == PhaseOn {
		return "ON"
	}
	return "OFF"
}

// Result summarizes a run.
type Result struct {
	Completed  int
	Elapsed    time.Duration
	Refreshes  int
	Overruns   int
	MaxOverrun time.Duration
}

// Scheduler drives an output through Cycles ON/OFF pairs on millisecond
// deadlines. The wait inside each phase is a busy poll of Clock; while
// polling, Refresh may be called when the display is due and at least Margin
// remains before the phase deadline, so a slow redraw can only ever extend a
// phase, never shorten it.
type Scheduler struct {
	Output output.Output
	Spec   Spec
	Cycles int

	RefreshInterval time.Duration
	Margin          time.Duration
	// EarlyFire lets a phase end up to this long before its deadline: the
	// phase ends when now-deadline >= -EarlyFire. Zero fires at the deadline,
	// which is what a 1ms tolerance means on a whole-millisecond tick
	// counter, and keeps every phase at least as long as requested.
	EarlyFire        time.Duration
	OverrunTolerance time.Duration
	Clock            Clock

	// Refresh redraws progress for the cycle in flight.
	Refresh func(cycle int)
	// OnCycle runs after every completed cycle.
	OnCycle func(cycle int)
	// Periodic runs after cycle n when Every > 0 and n%Every == 0.
	Periodic func(cycle int)
	Every    int
	// Interrupt is polled between phases; returning true powers the output
	// down and stops the run.
	Interrupt func() bool
}

// UpdatesDisabled reports whether both phases are shorter than the refresh
// interval, in which case the display cannot keep up and Refresh is never
// called.
func (s *Scheduler) UpdatesDisabled() bool {
	interval := s.RefreshInterval
	if interval == 0 {
		interval = DefaultRefreshInterval
	}
	return s.Spec.OnTime < interval && s.Spec.OffTime < interval
}

func (s *Scheduler) applyDefaults() {
	if s.RefreshInterval == 0 {
		s.RefreshInterval = DefaultRefreshInterval
	}
	if s.Margin == 0 {
		s.Margin = DefaultMargin
	}
	if s.OverrunTolerance == 0 {
		s.OverrunTolerance = DefaultOverrunTolerance
	}
	if s.Clock == nil {
		s.Clock = SystemClock{}
	}
}

// Run executes the test. ctx and Interrupt are honoured only between phases;
// an ON phase in progress is never cut short.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	s.applyDefaults()

	var res Result
	if s.Output == nil {
		return res, fmt.Errorf("%w: no output", ErrInvalid)
	}
	if s.Cycles < 1 {
		return res, fmt.Errorf("%w: cycles must be positive, got %d", ErrInvalid, s.Cycles)
	}
	if s.Spec.Period() <= 0 {
		return res, fmt.Errorf("%w: zero-length cycle", ErrInvalid)
	}

	disabled := s.UpdatesDisabled() || s.Refresh == nil
	start := s.Clock.Now()
	displayDue := start.Add(s.RefreshInterval)

	for cycle := 1; cycle <= s.Cycles; cycle++ {
		if err := s.between(ctx); err != nil {
			res.Elapsed = s.Clock.Now().Sub(start)
			return res, err
		}
		if s.Spec.OnTime > 0 {
			if err := s.Output.SetHigh(); err != nil {
				return res, fmt.Errorf("energize output: %w", err)
			}
			s.wait(PhaseOn, cycle, s.Spec.OnTime, &displayDue, disabled, &res)
		}

		if err := s.between(ctx); err != nil {
			res.Elapsed = s.Clock.Now().Sub(start)
			return res, err
		}
		if s.Spec.OffTime > 0 {
			if err := s.Output.SetLow(); err != nil {
				return res, fmt.Errorf("release output: %w", err)
			}
			s.wait(PhaseOff, cycle, s.Spec.OffTime, &displayDue, disabled, &res)
		}

		res.Completed = cycle
		if s.OnCycle != nil {
			s.OnCycle(cycle)
		}
		if s.Periodic != nil && s.Every > 0 && cycle%s.Every == 0 {
			s.Periodic(cycle)
		}
	}

	res.Elapsed = s.Clock.Now().Sub(start)
	return res, nil
}

// between checks for a stop request and powers the output down if there is
// one.
func (s *Scheduler) between(ctx context.Context) error {
	var err error
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	} else if s.Interrupt != nil && s.Interrupt() {
		err = ErrInterrupted
	}
	if err == nil {
		return nil
	}

	if lowErr := s.Output.SetLow(); lowErr != nil {
		log.Printf("Failed to power down output: %v", lowErr)
	}
	return err
}

// wait busy-polls the clock until the phase deadline, fitting display
// refreshes into the slack when the margin allows.
func (s *Scheduler) wait(phase Phase, cycle int, d time.Duration, displayDue *time.Time, disabled bool, res *Result) {
	deadline := s.Clock.Now().Add(d)
	refreshed := false

	var now time.Time
	for {
		now = s.Clock.Now()
		if now.Sub(deadline) >= -s.EarlyFire {
			break
		}
		if disabled || now.Before(*displayDue) || deadline.Sub(now) <= s.Margin {
			continue
		}

		s.Refresh(cycle)
		res.Refreshes++
		refreshed = true
		*displayDue = s.Clock.Now().Add(s.RefreshInterval)
	}

	over := now.Sub(deadline)
	if over <= s.OverrunTolerance {
		return
	}
	res.Overruns++
	if over > res.MaxOverrun {
		res.MaxOverrun = over
	}
	if refreshed {
		log.Printf("timing overrun: %s phase of cycle %d ran %v over %v after display refresh", phase, cycle, over, d)
	} else {
		log.Printf("timing overrun: %s phase of cycle %d ran %v over %v", phase, cycle, over, d)
	}
}
