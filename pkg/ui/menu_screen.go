package ui

import (
	"errors"
	"fmt"

	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/menu"
	"github.com/Tamagotono/CycleTester/pkg/storage"
)

// MenuTitle is the header of the test selection screen.
const MenuTitle = "Select Test"

const menuGap = 7

// MenuScreen is the test selection screen.
type MenuScreen struct {
	surface display.Surface
	footer  *footer
	notice  []string

	Header  *display.Pane
	Menu    *display.Pane
	Browser *menu.Browser
}

// NewMenuScreen lays out the header and the list between it and the footer.
func NewMenuScreen(s display.Surface, fonts Fonts) *MenuScreen {
	sw, _ := s.Size()
	coord := display.NewCoordinator()
	f := newFooter(s, coord, fonts.Footer)

	header := display.Style{Frame: display.Black, Fill: display.White, Text: display.Blue, Font: fonts.Title}
	hh := display.LineHeight(s, header.Font, header.MarginPct)
	ms := &MenuScreen{
		surface: s,
		footer:  f,
		Header:  display.NewPane(s, coord, display.Geometry{W: sw, H: hh}, header),
	}

	top := hh + menuGap
	ms.Menu = display.NewPane(s, coord, display.Geometry{Y: top, W: sw, H: f.top() - top}, display.Style{
		Frame: display.Red, Fill: display.Blue, Text: display.White, Font: fonts.Menu,
	})
	ms.Browser = menu.New(ms.Menu, nil)
	return ms
}

// Show clears the screen and presents entries. A nil or empty list shows the
// notice instead, so a missing card is visible rather than fatal.
func (ms *MenuScreen) Show(entries []storage.Entry, notice ...string) error {
	if err := ms.surface.Clear(display.Black); err != nil {
		return fmt.Errorf("clear screen: %w", err)
	}
	ms.Browser.SetEntries(entries)
	ms.notice = notice
	if err := ms.Header.SetLine(1, MenuTitle); err != nil {
		return err
	}
	return ms.RefreshAll()
}

// RefreshAll redraws the whole screen.
func (ms *MenuScreen) RefreshAll() error {
	list := ms.Browser.Render
	if len(ms.Browser.Entries()) == 0 && len(ms.notice) > 0 {
		list = func() error { return ms.Browser.Notice(ms.notice...) }
	}
	return errors.Join(
		ms.Header.RenderAll(),
		list(),
		ms.footer.render(),
	)
}
