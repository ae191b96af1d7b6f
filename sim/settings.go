package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/output"
)

// showSettingsDialog displays a settings dialog with tabs for the device
// configuration. Changes are saved and take effect after a restart of the
// tester loop.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createDisplayTab(state),
		createOutputTab(state),
		createAuditTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

// save writes the configuration and restarts the tester with it.
func (state *appState) save() {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return
	}
	state.stopTester()
	state.audit = meter.New(state.cfg)
	state.registerAudit()
	state.startTester()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	portOptions := []string{}
	portMap := make(map[string]string) // Display name to port name

	if ports, err := output.Ports(); err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	current := state.cfg.Serial.Port
	currentDisplay := current
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == current {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && current != "" {
		portOptions = append(portOptions, current)
		portMap[current] = current
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}
	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))
	mockCheck := widget.NewCheck("Mocked relay", nil)
	mockCheck.SetChecked(state.useMock)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Relay Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "", Widget: mockCheck},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				port := portMap[portSelect.Selected]
				if port == "" {
					port = portSelect.Selected
				}
				state.cfg.Serial.Port = port
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			state.useMock = mockCheck.Checked
			state.save()
		},
	}

	return container.NewTabItem("Serial", form)
}

// createDisplayTab creates the Display timing tab.
func createDisplayTab(state *appState) *container.TabItem {
	refreshEntry := durationEntry(state.cfg.Display.RefreshInterval)
	marginEntry := durationEntry(state.cfg.Display.Margin)
	earlyEntry := durationEntry(state.cfg.Display.EarlyFire)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Refresh Interval", Widget: refreshEntry, HintText: "At least " + config.MinRefreshInterval.String()},
			{Text: "Refresh Margin", Widget: marginEntry},
			{Text: "Early Fire", Widget: earlyEntry},
		},
		OnSubmit: func() {
			parseDuration(refreshEntry, &state.cfg.Display.RefreshInterval)
			parseDuration(marginEntry, &state.cfg.Display.Margin)
			parseDuration(earlyEntry, &state.cfg.Display.EarlyFire)
			state.save()
		},
	}

	return container.NewTabItem("Display", form)
}

// createOutputTab creates the output defaults tab.
func createOutputTab(state *appState) *container.TabItem {
	invertedCheck := widget.NewCheck("Active low relay", nil)
	invertedCheck.SetChecked(state.cfg.Output.Inverted)
	holdCheck := widget.NewCheck("Hold power after a test", nil)
	holdCheck.SetChecked(state.cfg.Output.HoldPower)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Polarity", Widget: invertedCheck},
			{Text: "Completion", Widget: holdCheck},
		},
		OnSubmit: func() {
			state.cfg.Output.Inverted = invertedCheck.Checked
			state.cfg.Output.HoldPower = holdCheck.Checked
			state.save()
		},
	}

	return container.NewTabItem("Output", form)
}

// createAuditTab creates the timing audit tab.
func createAuditTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Audit.WindowSeconds))
	toleranceEntry := widget.NewEntry()
	toleranceEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Audit.TolerancePct))
	minEntry := durationEntry(state.cfg.Audit.MinTolerance)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowEntry},
			{Text: "Tolerance (%)", Widget: toleranceEntry},
			{Text: "Min Tolerance", Widget: minEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowEntry.Text, 64); err == nil {
				state.cfg.Audit.WindowSeconds = ws
			}
			if tol, err := strconv.ParseFloat(toleranceEntry.Text, 64); err == nil {
				state.cfg.Audit.TolerancePct = tol
			}
			parseDuration(minEntry, &state.cfg.Audit.MinTolerance)
			state.save()
		},
	}

	return container.NewTabItem("Audit", form)
}

func durationEntry(d time.Duration) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(d.String())
	return e
}

func parseDuration(e *widget.Entry, dst *time.Duration) {
	if d, err := time.ParseDuration(e.Text); err == nil {
		*dst = d
	}
}
