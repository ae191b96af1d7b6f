// Package runner executes one burn-in test: it drives the pulse scheduler for
// a fixed number of cycles, keeps the test screen up to date and leaves the
// output in a safe state when it is done.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/timefmt"
	"github.com/Tamagotono/CycleTester/pkg/ui"
)

// DefaultPollInterval is how often operator prompts sample their button.
const DefaultPollInterval = 50 * time.Millisecond

// Status pane lines.
const (
	statusHeadline = 1
	statusProgress = 2
	statusDetail   = 3
)

// Option configures a Runner.
type Option func(*Runner)

// WithPeriodic calls fn after every cycle n with n%every == 0.
func WithPeriodic(fn func(cycle int), every int) Option {
	return func(r *Runner) {
		r.periodic = fn
		r.every = every
	}
}

// WithScreen shows parameters, progress and the completion popup on ts.
func WithScreen(ts *ui.TestScreen) Option {
	return func(r *Runner) {
		r.screen = ts
	}
}

// WithTitle sets the header lines shown on the test screen.
func WithTitle(lines ...string) Option {
	return func(r *Runner) {
		r.title = lines
	}
}

// WithHoldPower leaves the output energized after the last cycle.
func WithHoldPower(hold bool) Option {
	return func(r *Runner) {
		r.holdPower = hold
	}
}

// WithTiming overrides the display refresh interval and the slack a refresh
// needs before a phase deadline. Zero keeps the default.
func WithTiming(refresh, margin time.Duration) Option {
	return func(r *Runner) {
		r.refreshInterval = refresh
		r.margin = margin
	}
}

// WithEarlyFire lets a phase end up to d before its deadline.
func WithEarlyFire(d time.Duration) Option {
	return func(r *Runner) {
		r.earlyFire = d
	}
}

// WithClock replaces the system clock.
func WithClock(c pulse.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithInterrupt stops the test at the next phase boundary once fn reports
// true.
func WithInterrupt(fn func() bool) Option {
	return func(r *Runner) {
		r.interrupt = fn
	}
}

// WithObserver calls fn after every completed cycle.
func WithObserver(fn func(completed, total int)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// WithPollInterval sets how often prompts sample their button.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		r.pollInterval = d
	}
}

// Runner runs a bounded-cycle test on one output.
type Runner struct {
	out     output.Output
	cycles  int
	spec    pulse.Spec
	counter *pulse.Counter

	screen          *ui.TestScreen
	title           []string
	holdPower       bool
	refreshInterval time.Duration
	margin          time.Duration
	earlyFire       time.Duration
	clock           pulse.Clock
	pollInterval    time.Duration
	interrupt       func() bool
	observer        func(completed, total int)
	periodic        func(cycle int)
	every           int
}

// New creates a runner for cycles repetitions of spec on out.
func New(out output.Output, cycles int, spec pulse.Spec, opts ...Option) *Runner {
	r := &Runner{
		out:             out,
		cycles:          cycles,
		spec:            spec,
		counter:         pulse.NewCounter(cycles),
		refreshInterval: pulse.DefaultRefreshInterval,
		margin:          pulse.DefaultMargin,
		clock:           pulse.SystemClock{},
		pollInterval:    DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.refreshInterval == 0 {
		r.refreshInterval = pulse.DefaultRefreshInterval
	}
	if r.margin == 0 {
		r.margin = pulse.DefaultMargin
	}
	return r
}

// Spec returns the pulse timing.
func (r *Runner) Spec() pulse.Spec { return r.spec }

// Output returns the output the runner drives, with the test's polarity
// applied. SetLow on it de-energizes the fixture.
func (r *Runner) Output() output.Output { return r.out }

// Cycles returns the number of cycles the test runs.
func (r *Runner) Cycles() int { return r.cycles }

// Counter returns the cycle counter of the current or last run.
func (r *Runner) Counter() *pulse.Counter { return r.counter }

// HoldsPower reports whether the output stays on after the test.
func (r *Runner) HoldsPower() bool { return r.holdPower }

// Validate checks that the runner can start without touching the output.
func (r *Runner) Validate() error {
	if r.out == nil {
		return fmt.Errorf("%w: no output", pulse.ErrInvalid)
	}
	if r.cycles < 1 {
		return fmt.Errorf("%w: cycles must be positive, got %d", pulse.ErrInvalid, r.cycles)
	}
	if r.spec.OnTime < 0 || r.spec.OffTime < 0 || r.spec.Period() <= 0 {
		return fmt.Errorf("%w: on=%v off=%v", pulse.ErrInvalid, r.spec.OnTime, r.spec.OffTime)
	}
	if r.periodic != nil && r.every < 1 {
		return fmt.Errorf("%w: periodic call every %d cycles", pulse.ErrInvalid, r.every)
	}
	return nil
}

func (r *Runner) scheduler() *pulse.Scheduler {
	s := &pulse.Scheduler{
		Output:          r.out,
		Spec:            r.spec,
		Cycles:          r.cycles,
		RefreshInterval: r.refreshInterval,
		Margin:          r.margin,
		EarlyFire:       r.earlyFire,
		Clock:           r.clock,
		OnCycle:         r.cycleDone,
		Periodic:        r.periodic,
		Every:           r.every,
		Interrupt:       r.interrupt,
	}
	if r.screen != nil {
		s.Refresh = r.showProgress
	}
	return s
}

// Run executes the test. Invalid parameters are reported before the output is
// touched. On success the completion popup is left on screen; the caller
// dismisses it.
func (r *Runner) Run(ctx context.Context) (pulse.Result, error) {
	if err := r.Validate(); err != nil {
		return pulse.Result{}, err
	}
	r.counter = pulse.NewCounter(r.cycles)

	sched := r.scheduler()
	disabled := sched.UpdatesDisabled()
	if err := r.prepareScreen(disabled); err != nil {
		log.Printf("Failed to draw test screen: %v", err)
	}

	log.Printf("Starting test: %d cycles, on %v, off %v", r.cycles, r.spec.OnTime, r.spec.OffTime)
	res, err := sched.Run(ctx)
	if err != nil {
		if lowErr := r.out.SetLow(); lowErr != nil {
			err = errors.Join(err, fmt.Errorf("power down: %w", lowErr))
		}
		r.status(statusHeadline, fmt.Sprintf("Stopped at %d", res.Completed))
		return res, err
	}
	if res.Overruns > 0 {
		log.Printf("Test finished with %d timing overruns, worst %v", res.Overruns, res.MaxOverrun)
	}

	if err := r.settle(); err != nil {
		return res, err
	}
	if r.screen != nil {
		if !disabled {
			r.showProgress(r.cycles)
		}
		r.status(statusHeadline, fmt.Sprintf("Completed %d cycles", r.cycles))
		if err := r.screen.ShowPopup(CompletionLines(r.cycles)...); err != nil {
			log.Printf("Failed to show completion popup: %v", err)
		}
	}
	log.Printf("Test complete: %d cycles in %v", res.Completed, res.Elapsed)
	return res, nil
}

// settle leaves the output de-energized unless power is held.
func (r *Runner) settle() error {
	if r.holdPower {
		if err := r.out.SetHigh(); err != nil {
			return fmt.Errorf("hold power: %w", err)
		}
		return nil
	}
	if err := r.out.SetLow(); err != nil {
		return fmt.Errorf("power down: %w", err)
	}
	return nil
}

// CompletionLines is the text of the popup shown after a test.
func CompletionLines(cycles int) []string {
	return []string{
		"TEST COMPLETE",
		fmt.Sprintf("%d Cycles", cycles),
		"You may now",
		"Remove the",
		"board(s)",
	}
}

func (r *Runner) prepareScreen(disabled bool) error {
	if r.screen == nil {
		return nil
	}
	if err := r.screen.Show(); err != nil {
		return err
	}

	var errs []error
	if len(r.title) > 0 {
		errs = append(errs, r.screen.SetTitle(r.title...))
	}
	errs = append(errs, r.screen.SetParameters(r.spec, r.cycles))
	if disabled {
		errs = append(errs, r.screen.SetStatus("Test in progress", "Updates Disabled", fmt.Sprintf("Cycles= %d", r.cycles)))
	} else {
		errs = append(errs, r.screen.SetStatus("Test in progress", progressText(0, r.cycles), r.leftText(0)))
	}
	footer := [3]string{}
	if r.interrupt != nil {
		footer[2] = "STOP"
	}
	errs = append(errs, r.screen.SetFooter(footer))
	return errors.Join(errs...)
}

func (r *Runner) cycleDone(cycle int) {
	r.counter.Increment()
	if r.observer != nil {
		r.observer(r.counter.Completed, r.counter.Total)
	}
}

// showProgress redraws the counter and the remaining time for the cycle in
// flight.
func (r *Runner) showProgress(cycle int) {
	if err := r.screen.CounterLine(statusProgress, progressText(cycle, r.cycles)); err != nil {
		log.Printf("Failed to update progress: %v", err)
	}
	r.status(statusDetail, r.leftText(cycle))
}

func (r *Runner) status(line int, text string) {
	if r.screen == nil {
		return
	}
	if err := r.screen.StatusLine(line, text); err != nil {
		log.Printf("Failed to update status: %v", err)
	}
}

func (r *Runner) leftText(cycle int) string {
	left := r.spec.Remaining(cycle, r.cycles)
	return "Left:" + timefmt.Format(left.Milliseconds(), timefmt.DefaultPrecision, false)
}

func progressText(cycle, total int) string {
	return fmt.Sprintf("%d of %d", cycle, total)
}
