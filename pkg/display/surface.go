package display

import (
	"errors"
	"image/color"

	"tinygo.org/x/tinyfont"
)

var (
	// ErrOutOfRange is returned for a pane line index outside [1, LineCount].
	ErrOutOfRange = errors.New("line index out of range")
	// ErrNoFont is returned when text is drawn before a font was set.
	ErrNoFont = errors.New("no font set")
)

// Palette used by the tester screens.
var (
	Black  = color.RGBA{0x00, 0x00, 0x00, 0xff}
	White  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Blue   = color.RGBA{0x00, 0x00, 0xff, 0xff}
	Red    = color.RGBA{0xff, 0x00, 0x00, 0xff}
	Green  = color.RGBA{0x00, 0xff, 0x00, 0xff}
	Yellow = color.RGBA{0xff, 0xff, 0x00, 0xff}
)

// Surface is the drawing capability the panes need. It is independent of the
// display chip; Tiny implements it for any tinygo display driver.
type Surface interface {
	Size() (w, h int16)
	Clear(c color.RGBA) error
	SetFont(f tinyfont.Fonter)
	FontHeight() int16
	TextWidth(s string) int16
	FillRect(x, y, w, h int16, c color.RGBA) error
	RoundRect(x, y, w, h, r int16, frame, fill color.RGBA) error
	// DrawText draws s with its top-left corner at (x, y). The background is
	// left untouched.
	DrawText(x, y int16, s string, fg color.RGBA) error
	// Flush pushes pending drawing to the panel.
	Flush() error
}

// Ensure Tiny implements Surface.
var _ Surface = (*Tiny)(nil)

// Ensure Recorder implements Surface.
var _ Surface = (*Recorder)(nil)
