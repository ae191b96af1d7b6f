package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/dustin/go-humanize"
)

// progressInterval limits how often the progress line is redrawn. Update
// runs inside the pulse loop and must stay cheap.
const progressInterval = 200 * time.Millisecond

// progress prints a single self-overwriting status line.
type progress struct {
	w     io.Writer
	total int
	start time.Time
	now   func() time.Time

	mu   sync.Mutex
	last time.Time
}

func newProgress(w io.Writer, total int) *progress {
	p := &progress{w: w, total: total, now: time.Now}
	p.start = p.now()
	return p
}

// Update is a runner observer.
func (p *progress) Update(completed, total int) {
	now := p.now()
	p.mu.Lock()
	if completed < total && now.Sub(p.last) < progressInterval {
		p.mu.Unlock()
		return
	}
	p.last = now
	p.mu.Unlock()

	fmt.Fprint(p.w, "\r"+progressLine(completed, total, now.Sub(p.start)))
}

// Done ends the progress line.
func (p *progress) Done(res pulse.Result) {
	fmt.Fprintf(p.w, "\r%s\n", progressLine(res.Completed, p.total, res.Elapsed))
}

// progressLine shows counts and an estimate of the time left from the
// average cycle so far.
func progressLine(completed, total int, elapsed time.Duration) string {
	line := fmt.Sprintf("%s of %s cycles", humanize.Comma(int64(completed)), humanize.Comma(int64(total)))
	if completed > 0 && completed < total {
		left := elapsed / time.Duration(completed) * time.Duration(total-completed)
		line += grayStyle.Render("  left " + formatDuration(left))
	}
	return headerStyle.Render(line)
}

// formatReport renders the audit as a table.
func formatReport(r meter.Report) string {
	rows := [][]string{
		{"PHASE", "EXPECTED", "COUNT", "MEAN", "MIN", "MAX", "JITTER"},
		statsRow("ON", r.Expect.On, r.On.Count, r.On.Mean(), r.On.Min, r.On.Max, r.On.Jitter()),
		statsRow("OFF", r.Expect.Off, r.Off.Count, r.Off.Mean(), r.Off.Min, r.Off.Max, r.Off.Jitter()),
	}

	verdict := successStyle.Render("All phases within tolerance")
	if v := r.Violations(); v > 0 {
		verdict = errorStyle.Render(fmt.Sprintf("%s phases out of tolerance (%d late, %d early)",
			humanize.Comma(int64(v)), r.Late, r.Early))
	}
	summary := fmt.Sprintf("%s\nworst deviation %s, %d pauses skipped", verdict, formatDuration(r.Worst), r.Gaps)
	return table(rows) + "\n" + summary
}

func statsRow(name string, want time.Duration, count int, mean, lo, hi, jitter time.Duration) []string {
	return []string{
		name,
		formatDuration(want),
		humanize.Comma(int64(count)),
		formatDuration(mean),
		formatDuration(lo),
		formatDuration(hi),
		formatDuration(jitter),
	}
}
