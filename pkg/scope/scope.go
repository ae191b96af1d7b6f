// Package scope draws the output level over time like a logic analyzer
// channel, with the running timing audit overlaid.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/sample"
)

// ScopeWidget is a custom Fyne widget that displays the output trace.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu             sync.RWMutex
	displaySamples []sample.Sample // Reused for downsampling
	report         meter.Report
	xMin, xMax     time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		displaySamples:   make([]sample.Sample, 0, 1000),
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	s.updateRange()
	s.ExtendBaseWidget(s)
	return s
}

// UpdateData updates the widget with a new window and audit.
// This should be called from the meter callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, report meter.Report) {
	s.mu.Lock()
	s.displaySamples = sample.Downsample(s.displaySamples, samples, s.maxDisplayPoints)
	s.report = report
	s.updateRange()
	s.mu.Unlock()

	s.Refresh()
}

// Range returns the time span currently shown.
func (s *ScopeWidget) Range() (time.Time, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.xMin, s.xMax
}

// updateRange must be called with mu held.
func (s *ScopeWidget) updateRange() {
	window := time.Duration(s.cfg.Audit.WindowSeconds * float64(time.Second))
	if window <= 0 {
		window = 10 * time.Second
	}
	if len(s.displaySamples) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(window)
		return
	}

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].End()
	if s.xMax.Sub(s.xMin) < window {
		s.xMax = s.xMin.Add(window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
