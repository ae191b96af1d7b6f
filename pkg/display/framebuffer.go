package display

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"tinygo.org/x/drivers"
)

// Framebuffer is an in-memory display driver. Drawing goes to a back buffer;
// Display copies it to the front buffer, which is what Snapshot returns.
// It stands in for the LCD in the desktop simulator and headless runs.
type Framebuffer struct {
	back *image.RGBA

	mu      sync.RWMutex
	front   *image.RGBA
	frames  int
	onFlush func()
}

// Ensure Framebuffer implements drivers.Displayer.
var _ drivers.Displayer = (*Framebuffer)(nil)

// NewFramebuffer creates a framebuffer of w x h pixels cleared to black.
func NewFramebuffer(w, h int16) *Framebuffer {
	r := image.Rect(0, 0, int(w), int(h))
	fb := &Framebuffer{
		back:  image.NewRGBA(r),
		front: image.NewRGBA(r),
	}
	draw.Draw(fb.back, r, image.NewUniform(Black), image.Point{}, draw.Src)
	draw.Draw(fb.front, r, image.NewUniform(Black), image.Point{}, draw.Src)
	return fb
}

func (f *Framebuffer) Size() (x, y int16) {
	b := f.back.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	f.back.SetRGBA(int(x), int(y), c)
}

func (f *Framebuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	r := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height)).Intersect(f.back.Bounds())
	if r.Empty() {
		return nil
	}
	draw.Draw(f.back, r, image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// Display publishes the back buffer and notifies the flush callback.
func (f *Framebuffer) Display() error {
	f.mu.Lock()
	copy(f.front.Pix, f.back.Pix)
	f.frames++
	fn := f.onFlush
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// OnFlush registers a callback invoked after every Display. The callback
// runs on the drawing goroutine.
func (f *Framebuffer) OnFlush(fn func()) {
	f.mu.Lock()
	f.onFlush = fn
	f.mu.Unlock()
}

// Snapshot returns a copy of the last published frame.
func (f *Framebuffer) Snapshot() *image.RGBA {
	f.mu.RLock()
	defer f.mu.RUnlock()

	img := image.NewRGBA(f.front.Bounds())
	copy(img.Pix, f.front.Pix)
	return img
}

// Frames returns the number of published frames.
func (f *Framebuffer) Frames() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frames
}
