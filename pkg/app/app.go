// Package app is the tester's control loop: pick a test from the menu, make
// the fixture safe, run the test and return to the menu.
package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/input"
	"github.com/Tamagotono/CycleTester/pkg/menu"
	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/runner"
	"github.com/Tamagotono/CycleTester/pkg/storage"
	"github.com/Tamagotono/CycleTester/pkg/ui"
)

// App wires the hardware of one tester together.
type App struct {
	Config  *config.Config
	Surface display.Surface
	Volume  storage.Volume
	Output  output.Output
	Pad     *input.Pad

	// Stop, when set, aborts a running test at the next phase boundary.
	Stop input.Button
	// Clock replaces the system clock for the pulse loop.
	Clock pulse.Clock
	// Fonts defaults to ui.DefaultFonts.
	Fonts *ui.Fonts
	// OnStart is called right before the pulse loop of a test starts.
	OnStart func(name string, spec pulse.Spec, cycles int)
	// OnResult is called after every test that ran.
	OnResult func(name string, res pulse.Result, err error)

	registry *config.Registry
	menu     *ui.MenuScreen
	test     *ui.TestScreen
	idle     output.Output
}

// New creates an app. A nil cfg uses config.Default.
func New(cfg *config.Config, s display.Surface, v storage.Volume, out output.Output, pad *input.Pad) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	return &App{
		Config:  cfg,
		Surface: s,
		Volume:  v,
		Output:  out,
		Pad:     pad,
	}
}

func (a *App) init() {
	fonts := ui.DefaultFonts()
	if a.Fonts != nil {
		fonts = *a.Fonts
	}
	a.registry = config.NewRegistry(a.Volume, a.Config.Storage)
	a.menu = ui.NewMenuScreen(a.Surface, fonts)
	a.test = ui.NewTestScreen(a.Surface, fonts)
}

// Idle returns the output with the polarity of the last test that was
// loaded, or the device polarity before any. SetLow on it de-energizes the
// fixture. Call it only while Run is not running.
func (a *App) Idle() output.Output {
	if a.idle != nil {
		return a.idle
	}
	return output.Polarity(a.Output, a.Config.Output.Inverted)
}

// Run shows the menu and runs selected tests until ctx is done. The output is
// de-energized before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.init()
	defer func() {
		if err := a.Idle().SetLow(); err != nil {
			log.Printf("Failed to power down on exit: %v", err)
		}
	}()

	for {
		entry, ok, err := a.choose(ctx)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := a.runTest(ctx, entry); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Test %s failed: %v", entry.Name, err)
		}
	}
}

// choose scans the volume, shows the menu and returns the selected test.
// The bool is false when the menu should be rebuilt, e.g. after SEL on an empty
// list.
func (a *App) choose(ctx context.Context) (storage.Entry, bool, error) {
	entries, err := a.registry.Scan()
	var notice []string
	if err != nil {
		log.Printf("Failed to list tests: %v", err)
		notice = []string{"No tests found", "Insert SD card", "and press SEL"}
	}
	if err := a.menu.Show(entries, notice...); err != nil {
		log.Printf("Failed to draw menu: %v", err)
	}

	ticker := time.NewTicker(a.Config.Input.MenuPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return storage.Entry{}, false, ctx.Err()
		case <-ticker.C:
		}

		var err error
		switch a.Pad.Poll() {
		case input.Up:
			_, err = a.menu.Browser.Move(menu.Up)
		case input.Down:
			_, err = a.menu.Browser.Move(menu.Down)
		case input.Select:
			entry, ok := a.menu.Browser.Selected()
			if !ok {
				return storage.Entry{}, false, nil
			}
			log.Printf("Selected test %s (%s)", entry.Name, entry.Filename)
			return entry, true, nil
		}
		if err != nil {
			log.Printf("Failed to update menu: %v", err)
		}
	}
}

func (a *App) runTest(ctx context.Context, entry storage.Entry) error {
	name := entry.Name
	tc, err := a.registry.LoadEntry(entry)
	if err != nil {
		return a.showError(ctx, name, err)
	}

	opts := []runner.Option{
		runner.WithScreen(a.test),
		runner.WithTiming(a.Config.Display.RefreshInterval, a.Config.Display.Margin),
		runner.WithEarlyFire(a.Config.Display.EarlyFire),
		runner.WithPollInterval(a.Config.Input.PollInterval),
	}
	if a.Clock != nil {
		opts = append(opts, runner.WithClock(a.Clock))
	}
	if a.Stop != nil {
		opts = append(opts, runner.WithInterrupt(input.NewEdge(a.Stop).Fired))
	}
	r, err := runner.FromConfig(a.Output, tc, a.Config.Output, opts...)
	if err != nil {
		return a.showError(ctx, name, err)
	}
	a.idle = r.Output()

	sel := a.Pad.SelectButton()
	if err := a.showTest(tc, r); err != nil {
		log.Printf("Failed to draw test screen: %v", err)
	}
	if err := r.KillPower(ctx, sel); err != nil {
		return err
	}
	if m := tc.MeasureCurrent; m != nil {
		if err := r.MeasureCurrent(ctx, sel, m.Dwell); err != nil {
			return err
		}
	}

	if a.OnStart != nil {
		a.OnStart(name, r.Spec(), r.Cycles())
	}
	res, runErr := r.Run(ctx)
	if a.OnResult != nil {
		a.OnResult(name, res, runErr)
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return runErr
		}
		return errors.Join(runErr, r.KillPower(ctx, sel))
	}

	if err := input.WaitPress(ctx, sel, a.Config.Input.PollInterval); err != nil {
		return err
	}
	if err := a.test.DismissPopup(); err != nil {
		log.Printf("Failed to redraw after popup: %v", err)
	}
	if r.HoldsPower() {
		if err := r.KeepPowerOn(ctx, sel); err != nil {
			return err
		}
	}
	return r.KillPower(ctx, sel)
}

func (a *App) showTest(tc *config.TestConfig, r *runner.Runner) error {
	if err := a.test.Show(); err != nil {
		return err
	}
	return errors.Join(
		a.test.SetTitle(tc.Title...),
		a.test.SetParameters(r.Spec(), r.Cycles()),
		a.test.SetFooter([3]string{"", "", "SEL"}),
	)
}

// showError reports a test that cannot be started and waits for SEL. The
// output is not touched.
func (a *App) showError(ctx context.Context, name string, err error) error {
	log.Printf("Cannot start test %s: %v", name, err)

	lines := []string{"Cannot load " + name}
	lines = append(lines, strings.Split(err.Error(), ": ")...)
	lines = append(lines, "", "Press SEL")
	if drawErr := a.menu.Show(nil, lines...); drawErr != nil {
		log.Printf("Failed to show error: %v", drawErr)
	}

	return input.WaitPress(ctx, a.Pad.SelectButton(), a.Config.Input.PollInterval)
}
