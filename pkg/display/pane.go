package display

import (
	"fmt"
	"image/color"

	"github.com/chewxy/math32"
	"tinygo.org/x/tinyfont"
)

const (
	// DefaultMarginPct is the vertical margin added to the font height to
	// get the line height, as a percentage.
	DefaultMarginPct = 30
	// DefaultPopupWidth and DefaultPopupHeight size a popup constructed
	// without a width or height.
	DefaultPopupWidth  = 260
	DefaultPopupHeight = 200

	textInset = 2
)

// PopupBackdrop is the color the screen is cleared to behind a popup.
var PopupBackdrop = Yellow

// Geometry is a pane's rectangle in screen pixels.
type Geometry struct {
	X, Y, W, H int16
}

// Style holds a pane's colors and text metrics.
type Style struct {
	Frame, Fill, Text color.RGBA
	Font              tinyfont.Fonter
	CornerRadius      int16
	// MarginPct is the line margin as a percentage of the font height. Zero
	// selects DefaultMarginPct.
	MarginPct float32
	Popup     bool
}

// Pane is a rectangular region of the screen holding a fixed number of text
// lines. Lines are numbered from 1. Setting a line only changes memory;
// nothing is drawn until RenderLine or RenderAll is called.
type Pane struct {
	surface Surface
	coord   *Coordinator
	geo     Geometry
	style   Style

	fontHeight int16
	lineHeight int16
	textOffset int16
	lines      []string
}

// NewPane creates a pane and allocates its blank lines. The line count is
// fixed here: floor(H / lineHeight) with lineHeight = floor(fontHeight *
// (1 + margin)). A popup without a width or height gets the default size.
func NewPane(s Surface, coord *Coordinator, g Geometry, st Style) *Pane {
	if st.MarginPct == 0 {
		st.MarginPct = DefaultMarginPct
	}
	if st.Popup {
		if g.W <= 0 {
			g.W = DefaultPopupWidth
		}
		if g.H <= 0 {
			g.H = DefaultPopupHeight
		}
	}
	p := &Pane{
		surface: s,
		coord:   coord,
		geo:     g,
		style:   st,
	}

	p.lineHeight, p.fontHeight = metrics(s, st.Font, st.MarginPct)
	p.textOffset = (p.lineHeight - p.fontHeight) / 2
	p.lines = make([]string, p.countLines())
	return p
}

// LineHeight returns the height of one line of font with a margin of
// marginPct percent, as a pane on s would lay it out. Zero selects
// DefaultMarginPct.
func LineHeight(s Surface, font tinyfont.Fonter, marginPct float32) int16 {
	if marginPct == 0 {
		marginPct = DefaultMarginPct
	}
	lh, _ := metrics(s, font, marginPct)
	return lh
}

func metrics(s Surface, font tinyfont.Fonter, marginPct float32) (lineHeight, fontHeight int16) {
	s.SetFont(font)
	fontHeight = s.FontHeight()
	lineHeight = int16(math32.Floor(float32(fontHeight) * (100 + marginPct) / 100))
	if lineHeight < 1 {
		lineHeight = 1
	}
	return lineHeight, fontHeight
}

func (p *Pane) countLines() int {
	if p.geo.H <= 0 {
		return 0
	}
	return int(p.geo.H / p.lineHeight)
}

// LineCount returns the number of lines the pane holds.
func (p *Pane) LineCount() int { return len(p.lines) }

// LineHeight returns the height of one line in pixels.
func (p *Pane) LineHeight() int16 { return p.lineHeight }

// TextOffset returns the gap between a line's top and its text.
func (p *Pane) TextOffset() int16 { return p.textOffset }

// Geometry returns the pane's current rectangle.
func (p *Pane) Geometry() Geometry { return p.geo }

// IsPopup reports whether the pane may draw over a visible popup.
func (p *Pane) IsPopup() bool { return p.style.Popup }

// Surface returns the surface the pane draws on.
func (p *Pane) Surface() Surface { return p.surface }

func (p *Pane) check(i int) error {
	if i < 1 || i > len(p.lines) {
		return fmt.Errorf("%w: line %d of %d", ErrOutOfRange, i, len(p.lines))
	}
	return nil
}

// SetLine stores text for line i.
func (p *Pane) SetLine(i int, text string) error {
	if err := p.check(i); err != nil {
		return err
	}
	p.lines[i-1] = text
	return nil
}

// Line returns the text stored for line i.
func (p *Pane) Line(i int) (string, error) {
	if err := p.check(i); err != nil {
		return "", err
	}
	return p.lines[i-1], nil
}

// SetLines stores text for lines 1..len(texts). When there are more texts
// than lines nothing is changed.
func (p *Pane) SetLines(texts ...string) error {
	if len(texts) > len(p.lines) {
		return fmt.Errorf("%w: %d lines for a pane of %d", ErrOutOfRange, len(texts), len(p.lines))
	}
	copy(p.lines, texts)
	return nil
}

// Clear blanks every line in memory.
func (p *Pane) Clear() {
	for i := range p.lines {
		p.lines[i] = ""
	}
}

// RenderLine redraws line i in the pane's font.
func (p *Pane) RenderLine(i int) error {
	return p.RenderLineWithFont(i, p.style.Font)
}

// RenderLineWithFont redraws line i using font. The line height stays the
// one computed for the pane font.
func (p *Pane) RenderLineWithFont(i int, font tinyfont.Fonter) error {
	if err := p.check(i); err != nil {
		return err
	}
	if !p.coord.CanRender(p) {
		return nil
	}
	if err := p.drawLine(i, font); err != nil {
		return err
	}
	return p.surface.Flush()
}

// RenderAll redraws the frame and every line.
func (p *Pane) RenderAll() error {
	if !p.coord.CanRender(p) {
		return nil
	}
	g := p.geo
	if err := p.surface.RoundRect(g.X, g.Y, g.W, g.H, p.style.CornerRadius, p.style.Frame, p.style.Fill); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	for i := 1; i <= len(p.lines); i++ {
		if err := p.drawLine(i, p.style.Font); err != nil {
			return err
		}
	}
	return p.surface.Flush()
}

func (p *Pane) drawLine(i int, font tinyfont.Fonter) error {
	g := p.geo
	y := g.Y + int16(i-1)*p.lineHeight

	x, w := g.X, g.W
	if w > 2 {
		x, w = x+1, w-2
	}
	if err := p.surface.FillRect(x, y, w, p.lineHeight, p.style.Fill); err != nil {
		return fmt.Errorf("clear line %d: %w", i, err)
	}

	text := p.lines[i-1]
	if text == "" {
		return nil
	}
	p.surface.SetFont(font)
	if err := p.surface.DrawText(g.X+textInset, y+p.textOffset, text, p.style.Text); err != nil {
		return fmt.Errorf("draw line %d: %w", i, err)
	}
	return nil
}

// Popup centres the pane on screen, marks it as the visible popup and draws
// it over a cleared backdrop. Only the position changes.
func (p *Pane) Popup() error {
	sw, sh := p.surface.Size()
	p.geo.X = (sw - p.geo.W) / 2
	p.geo.Y = (sh - p.geo.H) / 2

	p.coord.ShowPopup(p)
	if err := p.surface.Clear(PopupBackdrop); err != nil {
		return fmt.Errorf("clear for popup: %w", err)
	}
	return p.RenderAll()
}

// Dismiss clears the screen and hides the popup. The coordinator's dismiss
// callbacks redraw the panes underneath.
func (p *Pane) Dismiss() error {
	if err := p.surface.Clear(Black); err != nil {
		return fmt.Errorf("clear after popup: %w", err)
	}
	return p.coord.DismissPopup()
}
