package main

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/Tamagotono/CycleTester/pkg/display"
)

// lcdScale enlarges the 320x240 panel on screen.
const lcdScale = 2

// lcd mirrors a framebuffer in the window. Flushes arrive on the tester
// goroutine and are coalesced so at most one copy is pending on the main
// thread.
type lcd struct {
	image *canvas.Image

	mu      sync.Mutex
	fb      *display.Framebuffer
	pending bool
}

func newLCD() *lcd {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 320, 240)))
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(fyne.NewSize(320*lcdScale, 240*lcdScale))
	return &lcd{image: img}
}

// attach starts mirroring fb.
func (l *lcd) attach(fb *display.Framebuffer) {
	l.mu.Lock()
	l.fb = fb
	l.mu.Unlock()
	fb.OnFlush(l.flushed)
}

func (l *lcd) flushed() {
	l.mu.Lock()
	if l.pending {
		l.mu.Unlock()
		return
	}
	l.pending = true
	l.mu.Unlock()

	fyne.Do(l.update)
}

// update runs on the main thread.
func (l *lcd) update() {
	l.mu.Lock()
	fb := l.fb
	l.pending = false
	l.mu.Unlock()

	if fb == nil {
		return
	}
	l.image.Image = fb.Snapshot()
	l.image.Refresh()
}
