package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/sample"
	"github.com/Tamagotono/CycleTester/pkg/timefmt"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	traceColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	badColor   = color.RGBA{R: 230, G: 60, B: 60, A: 255}   // Out of tolerance
	textColor  = color.RGBA{R: 200, G: 200, B: 200, A: 255} // Light gray
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid    *canvas.Rectangle
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 200)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// plot is the drawing area inside the margins.
type plot struct {
	x, y, w, h float32
	xMin, xMax time.Time
}

func (p plot) timeX(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	f := float32(t.Sub(p.xMin).Seconds() / span)
	return p.x + min(max(f, 0), 1)*p.w
}

func (p plot) levelY(ph pulse.Phase) float32 {
	if ph == pulse.PhaseOn {
		return p.y + p.h*0.2
	}
	return p.y + p.h*0.8
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	report := r.scope.report
	xMin, xMax := r.scope.xMin, r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const marginLeft, marginRight, marginTop, marginBottom = 40, 20, 30, 30
	p := plot{
		x: marginLeft, y: marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		xMin: xMin, xMax: xMax,
	}

	r.drawGrid(p)
	for _, seg := range traceSegments(p, samples) {
		line := canvas.NewLine(traceColor)
		if !report.Within(seg.sample) {
			line.StrokeColor = badColor
		}
		line.Position1 = seg.from
		line.Position2 = seg.to
		line.StrokeWidth = 2
		r.objects = append(r.objects, line)
	}
	r.drawSummary(p, report)

	canvas.Refresh(r.grid)
}

func (r *scopeRenderer) drawGrid(p plot) {
	for _, ph := range []pulse.Phase{pulse.PhaseOn, pulse.PhaseOff} {
		y := p.levelY(ph)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(p.x, y)
		line.Position2 = fyne.NewPos(p.x+p.w, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(ph.String(), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	const numVLines = 10
	span := p.xMax.Sub(p.xMin)
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/numVLines
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, p.y)
		line.Position2 = fyne.NewPos(x, p.y+p.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := span * time.Duration(i) / numVLines
		text := canvas.NewText(timefmt.Format(offset.Milliseconds(), 1, false), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.h+5))
		r.objects = append(r.objects, text)
	}
}

func (r *scopeRenderer) drawSummary(p plot, report meter.Report) {
	text := canvas.NewText(Summary(report), textColor)
	text.TextSize = 11
	text.Move(fyne.NewPos(p.x, 6))
	r.objects = append(r.objects, text)
}

// Summary is the one-line audit text shown above the trace.
func Summary(report meter.Report) string {
	if report.Expect.On <= 0 && report.Expect.Off <= 0 {
		return "No test running"
	}
	return fmt.Sprintf("ON avg %s  OFF avg %s  late %d  early %d  worst %s",
		formatWidth(report.On.Mean()), formatWidth(report.Off.Mean()),
		report.Late, report.Early, formatWidth(report.Worst))
}

func formatWidth(d time.Duration) string {
	return timefmt.FormatDuration(d, 2, false)
}

type segment struct {
	from, to fyne.Position
	sample   sample.Sample
}

// traceSegments turns phases into a square wave: a horizontal run at the
// phase level plus the edge into the next phase.
func traceSegments(p plot, samples []sample.Sample) []segment {
	segs := make([]segment, 0, 2*len(samples))
	for i, s := range samples {
		y := p.levelY(s.Phase)
		x1 := p.timeX(s.Timestamp)
		x2 := p.timeX(s.End())
		segs = append(segs, segment{from: fyne.NewPos(x1, y), to: fyne.NewPos(x2, y), sample: s})

		if i+1 < len(samples) && samples[i+1].Phase != s.Phase {
			segs = append(segs, segment{
				from:   fyne.NewPos(x2, y),
				to:     fyne.NewPos(x2, p.levelY(samples[i+1].Phase)),
				sample: s,
			})
		}
	}
	return segs
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}
