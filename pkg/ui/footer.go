package ui

import (
	"fmt"

	"github.com/Tamagotono/CycleTester/pkg/display"
	"tinygo.org/x/tinyfont"
)

// footerMarginPct is tighter than the pane default to leave room above.
const footerMarginPct = 10

// DefaultLabels are the front panel button captions, left to right.
var DefaultLabels = [3]string{"UP", "DOWN", "SEL"}

// footer draws button captions along the bottom edge, one under each of the
// three buttons.
type footer struct {
	surface display.Surface
	coord   *display.Coordinator
	font    tinyfont.Fonter
	y, h    int16
	Labels  [3]string
}

func newFooter(s display.Surface, coord *display.Coordinator, font tinyfont.Fonter) *footer {
	_, sh := s.Size()
	h := display.LineHeight(s, font, footerMarginPct)
	return &footer{
		surface: s,
		coord:   coord,
		font:    font,
		y:       sh - h,
		h:       h,
		Labels:  DefaultLabels,
	}
}

// top is the first row the footer covers.
func (f *footer) top() int16 { return f.y }

func (f *footer) render() error {
	if f.coord.PopupVisible() {
		return nil
	}
	sw, _ := f.surface.Size()
	if err := f.surface.FillRect(0, f.y, sw, f.h, display.Yellow); err != nil {
		return fmt.Errorf("draw footer: %w", err)
	}

	f.surface.SetFont(f.font)
	fh := f.surface.FontHeight()
	slot := sw / int16(len(f.Labels))
	margin := slot / 8
	for i, label := range f.Labels {
		if label == "" {
			continue
		}
		x := int16(i)*slot + margin
		w := slot - 2*margin
		if err := f.surface.FillRect(x, f.y, w, f.h, display.Blue); err != nil {
			return fmt.Errorf("draw footer: %w", err)
		}
		tx := x + (w-f.surface.TextWidth(label))/2
		if err := f.surface.DrawText(tx, f.y+(f.h-fh)/2, label, display.White); err != nil {
			return fmt.Errorf("draw footer: %w", err)
		}
	}
	return f.surface.Flush()
}
