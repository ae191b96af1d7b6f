package menu

import (
	"fmt"

	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/storage"
)

// Marker is prepended to the highlighted row while it is drawn.
const Marker = "> "

// Direction of a highlight or scroll move.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Browser is a scrollable list of tests shown in a pane. Offset is the index
// of the first visible entry, Aperture the number of visible rows and
// Highlighted the highlighted row within the window.
//
// The window never scrolls past either end of the list, and the highlight
// never leaves the visible rows: at the window edge the list scrolls
// instead.
type Browser struct {
	pane    *display.Pane
	entries []storage.Entry

	Offset      int
	Aperture    int
	Highlighted int
}

// New creates a browser over entries, which must already be sorted.
func New(pane *display.Pane, entries []storage.Entry) *Browser {
	return &Browser{
		pane:     pane,
		entries:  entries,
		Aperture: pane.LineCount(),
	}
}

// SetEntries replaces the list and returns to its top.
func (b *Browser) SetEntries(entries []storage.Entry) {
	b.entries = entries
	b.Offset = 0
	b.Highlighted = 0
}

// Entries returns the full list.
func (b *Browser) Entries() []storage.Entry {
	return b.entries
}

// visible is the number of rows holding an entry.
func (b *Browser) visible() int {
	return min(b.Aperture, len(b.entries)-b.Offset)
}

func (b *Browser) maxOffset() int {
	return max(0, len(b.entries)-b.Aperture)
}

// Move moves the highlight one row. Only the two affected rows are redrawn
// unless the window has to scroll. At either end of the list Move does
// nothing and reports false.
func (b *Browser) Move(dir Direction) (bool, error) {
	if b.visible() <= 0 {
		return false, nil
	}

	switch dir {
	case Up:
		if b.Highlighted > 0 {
			return true, b.moveHighlight(b.Highlighted - 1)
		}
		if b.Offset > 0 {
			b.Offset--
			return true, b.Render()
		}
	case Down:
		if b.Highlighted < b.visible()-1 {
			return true, b.moveHighlight(b.Highlighted + 1)
		}
		if b.Offset < b.maxOffset() {
			b.Offset++
			return true, b.Render()
		}
	}
	return false, nil
}

func (b *Browser) moveHighlight(row int) error {
	prev := b.Highlighted
	b.Highlighted = row
	if err := b.renderRow(prev, false); err != nil {
		return err
	}
	return b.renderRow(row, true)
}

// Scroll moves the window by one entry and keeps the highlighted row. It
// reports false when the window is already at that end of the list.
func (b *Browser) Scroll(dir Direction) (bool, error) {
	offset := b.Offset
	if dir == Up {
		offset--
	} else {
		offset++
	}
	if offset < 0 || offset > b.maxOffset() {
		return false, nil
	}
	b.Offset = offset
	return true, b.Render()
}

// Selected returns the highlighted entry.
func (b *Browser) Selected() (storage.Entry, bool) {
	i := b.Offset + b.Highlighted
	if i < 0 || i >= len(b.entries) {
		return storage.Entry{}, false
	}
	return b.entries[i], true
}

// Render redraws the whole window with the highlighted row marked.
func (b *Browser) Render() error {
	if len(b.entries) == 0 {
		return b.Notice("No tests found")
	}

	b.pane.Clear()
	for row := 0; row < b.visible(); row++ {
		text := b.entries[b.Offset+row].Name
		if row == b.Highlighted {
			text = Marker + text
		}
		if err := b.pane.SetLine(row+1, text); err != nil {
			return err
		}
	}
	if err := b.pane.RenderAll(); err != nil {
		return fmt.Errorf("render menu: %w", err)
	}
	return b.unmark(b.Highlighted)
}

// Notice replaces the list with a message, e.g. when no storage is mounted.
// Lines beyond the pane are dropped.
func (b *Browser) Notice(lines ...string) error {
	b.pane.Clear()
	if len(lines) > b.pane.LineCount() {
		lines = lines[:b.pane.LineCount()]
	}
	if err := b.pane.SetLines(lines...); err != nil {
		return err
	}
	return b.pane.RenderAll()
}

// renderRow redraws one row, adding the marker only for the draw.
func (b *Browser) renderRow(row int, highlighted bool) error {
	text := b.entries[b.Offset+row].Name
	if highlighted {
		text = Marker + text
	}
	if err := b.pane.SetLine(row+1, text); err != nil {
		return err
	}
	if err := b.pane.RenderLine(row + 1); err != nil {
		return fmt.Errorf("render menu row %d: %w", row, err)
	}
	return b.unmark(row)
}

func (b *Browser) unmark(row int) error {
	if row >= b.visible() {
		return nil
	}
	return b.pane.SetLine(row+1, b.entries[b.Offset+row].Name)
}
