package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/Tamagotono/CycleTester/pkg/app"
	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/input"
	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/sample"
	"github.com/Tamagotono/CycleTester/pkg/samples"
	"github.com/Tamagotono/CycleTester/pkg/scope"
	"github.com/Tamagotono/CycleTester/pkg/storage"
	"tinygo.org/x/tinyfont"
)

func main() {
	var (
		portFlag    = flag.String("p", "", "Serial relay port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag  = flag.String("config", "config.yaml", "Configuration file path")
		dirFlag     = flag.String("dir", "", "Directory with test files (default: built-in samples)")
		mockFlag    = flag.Bool("mock", false, "Use mocked relay instead of serial port")
		averageFlag = flag.Int("average-phases", 0, "Number of phases to average in the scope (0 = disabled)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	var volume storage.Volume = samples.Volume()
	if *dirFlag != "" {
		volume = storage.NewDir(*dirFlag)
	}

	application := fyneapp.NewWithID("com.tamagotono.cycletester")
	window := application.NewWindow("Cycle Tester")
	window.Resize(fyne.NewSize(1200, 600))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		volume:     volume,
		window:     window,
		useMock:    *mockFlag,
		average:    *averageFlag,
		audit:      meter.New(cfg),
		lcd:        newLCD(),
		up:         &input.Latch{},
		down:       &input.Latch{},
		sel:        &input.Latch{},
		stop:       &input.Latch{},
	}
	state.scopeWidget = scope.New(cfg)
	state.registerAudit()

	content := container.NewBorder(
		createToolbar(state),
		nil,
		container.NewVBox(state.lcd.image, createKeypad(state)),
		nil,
		state.scopeWidget,
	)
	window.SetContent(content)
	window.SetOnClosed(state.stopTester)

	state.startTester()
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	volume     storage.Volume
	window     fyne.Window
	useMock    bool
	average    int

	audit       *meter.Meter
	scopeWidget *scope.ScopeWidget
	lcd         *lcd
	relayLabel  *widget.Label
	testLabel   *widget.Label

	up, down, sel, stop *input.Latch

	fixture *fixture
	tester  *app.App
	cancel  context.CancelFunc
	done    chan struct{}

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with Restart, Settings and the status
// labels.
func createToolbar(state *appState) fyne.CanvasObject {
	restartBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		state.stopTester()
		state.startTester()
	})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.relayLabel = widget.NewLabel("Relay: off")
	state.testLabel = widget.NewLabel("No test running")

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(restartBtn, settingsBtn),
		state.relayLabel,
		state.testLabel,
	)
}

// createKeypad creates the three front panel buttons plus STOP.
func createKeypad(state *appState) fyne.CanvasObject {
	return container.NewGridWithColumns(4,
		widget.NewButton("UP", state.up.Press),
		widget.NewButton("DOWN", state.down.Press),
		widget.NewButton("SEL", state.sel.Press),
		widget.NewButtonWithIcon("STOP", theme.MediaStopIcon(), state.stop.Press),
	)
}

// registerAudit forwards meter updates to the scope, throttled to ~60 FPS.
func (state *appState) registerAudit() {
	const updateInterval = 16 * time.Millisecond
	state.audit.OnUpdate(func(samples []sample.Sample, report meter.Report) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		relay := "Relay: off"
		if n := len(samples); n > 0 && samples[n-1].Phase == pulse.PhaseOff {
			// The last complete phase was off, so the relay is on now.
			relay = "Relay: ON"
		}
		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, report)
			state.relayLabel.SetText(relay)
		})
	})
}

// startTester opens the fixture and runs the tester loop in the background.
func (state *appState) startTester() {
	f, err := openFixture(state.cfg, state.useMock, state.average, state.audit)
	if err != nil {
		dialog.ShowError(fmt.Errorf("%w, using mocked relay", err), state.window)
		f, err = openFixture(state.cfg, true, state.average, state.audit)
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
	}
	state.fixture = f

	fb := display.NewFramebuffer(320, 240)
	state.lcd.attach(fb)

	tester := app.New(state.cfg, display.NewTiny(fb, &tinyfont.TomThumb), state.volume, f.out(),
		input.NewPad(state.up, state.down, state.sel))
	tester.Stop = state.stop
	state.tester = tester
	tester.OnStart = func(name string, spec pulse.Spec, cycles int) {
		state.audit.SetExpect(meter.ExpectSpec(spec))
		text := fmt.Sprintf("%s: %d cycles of %v on / %v off", name, cycles, spec.OnTime, spec.OffTime)
		fyne.Do(func() { state.testLabel.SetText(text) })
	}
	tester.OnResult = func(name string, res pulse.Result, err error) {
		report := state.audit.Report()
		text := fmt.Sprintf("%s: %d cycles in %v, %d out of tolerance", name, res.Completed, res.Elapsed.Round(time.Millisecond), report.Violations())
		if err != nil {
			text = fmt.Sprintf("%s: %v", name, err)
		}
		log.Print(text)
		fyne.Do(func() { state.testLabel.SetText(text) })
	}

	ctx, cancel := context.WithCancel(context.Background())
	state.cancel = cancel
	state.done = make(chan struct{})
	go func() {
		defer close(state.done)
		if err := tester.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Tester stopped: %v", err)
		}
	}()
}

// stopTester cancels the tester loop and closes the fixture.
func (state *appState) stopTester() {
	if state.cancel == nil {
		return
	}
	state.cancel()
	<-state.done
	state.cancel = nil

	state.fixture.idle = state.tester.Idle()
	state.tester = nil
	state.fixture.Close()
	state.fixture = nil
}
