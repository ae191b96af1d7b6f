package display

import (
	"image/color"
	"sync"

	"tinygo.org/x/tinyfont"
)

// OpKind identifies a recorded drawing operation.
type OpKind int

const (
	OpClear OpKind = iota
	OpFill
	OpRoundRect
	OpText
	OpFlush
)

// Op is one recorded drawing call.
type Op struct {
	Kind       OpKind
	X, Y, W, H int16
	Text       string
	Color      color.RGBA
	Font       tinyfont.Fonter
}

// Recorder is a Surface that records every call instead of drawing. Text is
// measured with fixed metrics so layouts are predictable.
type Recorder struct {
	mu   sync.Mutex
	ops  []Op
	font tinyfont.Fonter

	Width, Height int16
	// GlyphHeight is the reported font height; zero uses the font's advance.
	GlyphHeight int16
	// GlyphWidth is the width of every character.
	GlyphWidth int16
	// Err, when set, is returned by every drawing call.
	Err error
}

// NewRecorder creates a recorder for a w x h screen with glyphs of
// glyphW x glyphH pixels.
func NewRecorder(w, h, glyphW, glyphH int16) *Recorder {
	return &Recorder{
		ops:         make([]Op, 0),
		Width:       w,
		Height:      h,
		GlyphWidth:  glyphW,
		GlyphHeight: glyphH,
	}
}

func (r *Recorder) Size() (w, h int16) {
	return r.Width, r.Height
}

func (r *Recorder) Clear(c color.RGBA) error {
	return r.record(Op{Kind: OpClear, W: r.Width, H: r.Height, Color: c})
}

func (r *Recorder) SetFont(f tinyfont.Fonter) {
	r.mu.Lock()
	r.font = f
	r.mu.Unlock()
}

func (r *Recorder) FontHeight() int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GlyphHeight > 0 || r.font == nil {
		return r.GlyphHeight
	}
	return int16(r.font.GetYAdvance())
}

func (r *Recorder) TextWidth(s string) int16 {
	return int16(len([]rune(s))) * r.GlyphWidth
}

func (r *Recorder) FillRect(x, y, w, h int16, c color.RGBA) error {
	return r.record(Op{Kind: OpFill, X: x, Y: y, W: w, H: h, Color: c})
}

func (r *Recorder) RoundRect(x, y, w, h, radius int16, frame, fill color.RGBA) error {
	return r.record(Op{Kind: OpRoundRect, X: x, Y: y, W: w, H: h, Color: fill})
}

func (r *Recorder) DrawText(x, y int16, s string, fg color.RGBA) error {
	return r.record(Op{Kind: OpText, X: x, Y: y, Text: s, Color: fg})
}

func (r *Recorder) Flush() error {
	return r.record(Op{Kind: OpFlush})
}

func (r *Recorder) record(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	op.Font = r.font
	r.ops = append(r.ops, op)
	return nil
}

// Ops returns a copy of every recorded operation.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Texts returns the strings drawn, in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, op := range r.ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// Count returns how many operations of kind k were recorded.
func (r *Recorder) Count(k OpKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Reset forgets recorded operations.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = r.ops[:0]
	r.mu.Unlock()
}
