package ui

import (
	"errors"
	"fmt"
	"log"

	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/timefmt"
)

// Pane sizes in lines.
const (
	TitleLines  = 2
	ParamLines  = 5
	StatusLines = 3
	PopupLines  = 5

	paramMarginPct = 10
	popupWidth     = 300
)

// TestScreen is the layout shown while a test runs: title, pulse parameters,
// progress status, the button footer and a completion popup.
type TestScreen struct {
	surface display.Surface
	coord   *display.Coordinator
	fonts   Fonts
	footer  *footer

	Header     *display.Pane
	Parameters *display.Pane
	Status     *display.Pane
	Popup      *display.Pane
}

// NewTestScreen lays out the panes on s. Nothing is drawn until Show.
func NewTestScreen(s display.Surface, fonts Fonts) *TestScreen {
	sw, _ := s.Size()
	coord := display.NewCoordinator()

	var y int16
	stack := func(lines int, st display.Style) *display.Pane {
		h := int16(lines) * display.LineHeight(s, st.Font, st.MarginPct)
		p := display.NewPane(s, coord, display.Geometry{Y: y, W: sw, H: h}, st)
		y += h
		return p
	}

	ts := &TestScreen{
		surface: s,
		coord:   coord,
		fonts:   fonts,
		footer:  newFooter(s, coord, fonts.Footer),
	}
	ts.Header = stack(TitleLines, display.Style{
		Frame: display.Blue, Fill: display.Blue, Text: display.White, Font: fonts.Title,
	})
	ts.Parameters = stack(ParamLines, display.Style{
		Frame: display.White, Fill: display.White, Text: display.Blue, Font: fonts.Params,
		MarginPct: paramMarginPct,
	})
	ts.Status = stack(StatusLines, display.Style{
		Frame: display.Black, Fill: display.Black, Text: display.Yellow, Font: fonts.Status,
	})
	if y > ts.footer.top() {
		log.Printf("Test screen needs %d rows, only %d above the footer", y, ts.footer.top())
	}

	popup := display.Style{
		Frame: display.White, Fill: display.Blue, Text: display.White, Font: fonts.Popup, Popup: true,
	}
	ts.Popup = display.NewPane(s, coord, display.Geometry{
		W: min(popupWidth, sw),
		H: int16(PopupLines) * display.LineHeight(s, popup.Font, popup.MarginPct),
	}, popup)

	coord.OnDismiss(ts.RefreshAll)
	return ts
}

// Coordinator returns the popup coordinator shared by the panes.
func (ts *TestScreen) Coordinator() *display.Coordinator { return ts.coord }

// Fonts returns the screen fonts.
func (ts *TestScreen) Fonts() Fonts { return ts.fonts }

// SetFooter changes the button captions. Empty captions are not drawn.
func (ts *TestScreen) SetFooter(labels [3]string) error {
	ts.footer.Labels = labels
	return ts.footer.render()
}

// Show clears the screen and draws every pane.
func (ts *TestScreen) Show() error {
	if err := ts.surface.Clear(display.Black); err != nil {
		return fmt.Errorf("clear screen: %w", err)
	}
	return ts.RefreshAll()
}

// RefreshAll redraws every pane and the footer. It runs when a popup is
// dismissed so that updates made while it was visible are not lost.
func (ts *TestScreen) RefreshAll() error {
	return errors.Join(
		ts.Header.RenderAll(),
		ts.Parameters.RenderAll(),
		ts.Status.RenderAll(),
		ts.footer.render(),
	)
}

// SetTitle shows the test title. Lines that do not fit are dropped.
func (ts *TestScreen) SetTitle(lines ...string) error {
	if err := fill(ts.Header, lines); err != nil {
		return err
	}
	return ts.Header.RenderAll()
}

// SetParameters shows the pulse timing and the nominal test duration.
func (ts *TestScreen) SetParameters(spec pulse.Spec, cycles int) error {
	if err := fill(ts.Parameters, ParameterLines(spec, cycles)); err != nil {
		return err
	}
	return ts.Parameters.RenderAll()
}

// ParameterLines formats spec for the parameters pane.
func ParameterLines(spec pulse.Spec, cycles int) []string {
	return []string{
		"PW  = " + timefmt.FormatDuration(spec.PulseWidth, timefmt.DefaultPrecision, false),
		"DS  = " + spec.DutyText() + "%",
		"ON  = " + timefmt.FormatDuration(spec.OnTime, 3, false),
		"OFF = " + timefmt.FormatDuration(spec.OffTime, 3, false),
		"Time= " + timefmt.FormatDuration(spec.Total(cycles), 3, false),
	}
}

// SetStatus replaces the status pane and redraws it.
func (ts *TestScreen) SetStatus(lines ...string) error {
	if err := fill(ts.Status, lines); err != nil {
		return err
	}
	return ts.Status.RenderAll()
}

// StatusLine redraws a single status line. It is cheap enough to call from
// inside the pulse loop.
func (ts *TestScreen) StatusLine(i int, text string) error {
	if err := ts.Status.SetLine(i, text); err != nil {
		return err
	}
	return ts.Status.RenderLine(i)
}

// CounterLine is StatusLine in the counter font.
func (ts *TestScreen) CounterLine(i int, text string) error {
	if err := ts.Status.SetLine(i, text); err != nil {
		return err
	}
	return ts.Status.RenderLineWithFont(i, ts.fonts.Counter)
}

// ShowPopup fills and shows the popup. Other panes stop drawing until
// DismissPopup.
func (ts *TestScreen) ShowPopup(lines ...string) error {
	if err := fill(ts.Popup, lines); err != nil {
		return err
	}
	return ts.Popup.Popup()
}

// DismissPopup hides the popup and redraws the screen.
func (ts *TestScreen) DismissPopup() error {
	return ts.Popup.Dismiss()
}

// fill replaces the text of p, dropping lines that do not fit.
func fill(p *display.Pane, lines []string) error {
	p.Clear()
	if n := p.LineCount(); len(lines) > n {
		lines = lines[:n]
	}
	return p.SetLines(lines...)
}
