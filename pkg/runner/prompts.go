package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/input"
	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
)

// KillPower de-energizes the output and waits for the operator to confirm
// that boards have been loaded or unloaded.
func (r *Runner) KillPower(ctx context.Context, btn input.Button) error {
	if err := r.out.SetLow(); err != nil {
		return fmt.Errorf("power down: %w", err)
	}
	return r.prompt(ctx, btn, "Power is off", "load/unload PCBA", "Press button")
}

// KeepPowerOn energizes the output until the operator presses btn, then
// powers it down again.
func (r *Runner) KeepPowerOn(ctx context.Context, btn input.Button) error {
	if err := r.out.SetHigh(); err != nil {
		return fmt.Errorf("hold power: %w", err)
	}
	waitErr := r.prompt(ctx, btn, "", "Press button to", "turn power off")
	if err := r.out.SetLow(); err != nil {
		return fmt.Errorf("power down: %w", err)
	}
	return waitErr
}

// MeasureCurrent powers the boards, lets the supply settle for dwell and
// asks the operator to take a current reading. Power stays on afterwards.
func (r *Runner) MeasureCurrent(ctx context.Context, btn input.Button, dwell time.Duration) error {
	r.show("Enabling DC power", "", "")
	if err := r.out.SetHigh(); err != nil {
		return fmt.Errorf("energize output: %w", err)
	}

	r.show("Enabling DC power", fmt.Sprintf("Dwell for %d seconds", int(dwell.Seconds())), "")
	if err := sleep(ctx, dwell); err != nil {
		return err
	}
	return r.prompt(ctx, btn, "Take measurement now", "Press Button", "")
}

// prompt shows three status lines, waits for a press and clears them.
func (r *Runner) prompt(ctx context.Context, btn input.Button, lines ...string) error {
	r.show(lines...)
	log.Printf("Waiting for operator: %q", lines)
	if err := input.WaitPress(ctx, btn, r.pollInterval); err != nil {
		return err
	}
	r.show("", "", "")
	return nil
}

func (r *Runner) show(lines ...string) {
	if r.screen == nil {
		return
	}
	if err := r.screen.SetStatus(lines...); err != nil {
		log.Printf("Failed to show prompt: %v", err)
	}
}

// Dwell returns a periodic callback that holds the output at the given level
// for d and then releases it. It busy-waits on the runner's clock so the
// hold is as precise as a pulse phase.
func (r *Runner) Dwell(d time.Duration, energized bool) func(cycle int) {
	return func(cycle int) {
		if err := output.Set(r.out, energized); err != nil {
			log.Printf("Failed to start dwell after cycle %d: %v", cycle, err)
			return
		}
		hold(r.clock, d)
		if err := r.out.SetLow(); err != nil {
			log.Printf("Failed to end dwell after cycle %d: %v", cycle, err)
		}
	}
}

func hold(c pulse.Clock, d time.Duration) {
	deadline := c.Now().Add(d)
	for c.Now().Before(deadline) {
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
