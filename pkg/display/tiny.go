package display

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
)

// rectFiller is implemented by drivers that can fill a rectangle in one bus
// transaction (ili9341, st7789, Framebuffer).
type rectFiller interface {
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// Tiny draws on a tinygo display driver with tinyfont text and tinydraw
// shapes.
type Tiny struct {
	d      drivers.Displayer
	font   tinyfont.Fonter
	ascent int16
}

// NewTiny wraps d. font may be nil and set later.
func NewTiny(d drivers.Displayer, font tinyfont.Fonter) *Tiny {
	t := &Tiny{d: d}
	t.SetFont(font)
	return t
}

func (t *Tiny) Size() (w, h int16) {
	return t.d.Size()
}

func (t *Tiny) Clear(c color.RGBA) error {
	w, h := t.d.Size()
	return t.FillRect(0, 0, w, h, c)
}

func (t *Tiny) SetFont(f tinyfont.Fonter) {
	t.font = f
	t.ascent = ascent(f)
}

// FontHeight is the font's line advance in pixels.
func (t *Tiny) FontHeight() int16 {
	if t.font == nil {
		return 0
	}
	return int16(t.font.GetYAdvance())
}

func (t *Tiny) TextWidth(s string) int16 {
	if t.font == nil {
		return 0
	}
	_, outbox := tinyfont.LineWidth(t.font, s)
	return int16(outbox)
}

func (t *Tiny) FillRect(x, y, w, h int16, c color.RGBA) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if f, ok := t.d.(rectFiller); ok {
		return f.FillRectangle(x, y, w, h, c)
	}
	return tinydraw.FilledRectangle(t.d, x, y, w, h, c)
}

// RoundRect draws a filled rectangle with a one pixel frame. Corners are
// rounded with radius r, clamped to half the shorter side.
func (t *Tiny) RoundRect(x, y, w, h, r int16, frame, fill color.RGBA) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if err := t.roundFill(x, y, w, h, r, frame); err != nil {
		return err
	}
	if w <= 2 || h <= 2 {
		return nil
	}
	return t.roundFill(x+1, y+1, w-2, h-2, r-1, fill)
}

func (t *Tiny) roundFill(x, y, w, h, r int16, c color.RGBA) error {
	if m := min(w, h) / 2; r > m {
		r = m
	}
	if r <= 0 {
		return t.FillRect(x, y, w, h, c)
	}

	if err := t.FillRect(x+r, y, w-2*r, h, c); err != nil {
		return err
	}
	if err := t.FillRect(x, y+r, w, h-2*r, c); err != nil {
		return err
	}
	right, bottom := x+w-1-r, y+h-1-r
	tinydraw.FilledCircle(t.d, x+r, y+r, r, c)
	tinydraw.FilledCircle(t.d, right, y+r, r, c)
	tinydraw.FilledCircle(t.d, x+r, bottom, r, c)
	tinydraw.FilledCircle(t.d, right, bottom, r, c)
	return nil
}

func (t *Tiny) DrawText(x, y int16, s string, fg color.RGBA) error {
	if t.font == nil {
		return ErrNoFont
	}
	// tinyfont positions text on its baseline.
	tinyfont.WriteLine(t.d, t.font, x, y+t.ascent, s, fg)
	return nil
}

func (t *Tiny) Flush() error {
	return t.d.Display()
}

// ascent returns the distance from the top of a capital letter to the
// baseline.
func ascent(f tinyfont.Fonter) int16 {
	if f == nil {
		return 0
	}
	info := f.GetGlyph('A').Info()
	if info.YOffset < 0 {
		return -int16(info.YOffset)
	}
	return int16(f.GetYAdvance()) * 3 / 4
}
