// Package meter audits the timing of the output: it keeps a window of
// measured phases for drawing and checks every phase against the widths the
// running test asked for.
package meter

import (
	"sync"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/sample"
)

var _ TimingAudit = (*Meter)(nil)

// GapFactor marks a phase as a pause rather than a pulse when it is this many
// times longer than expected. Operator prompts and periodic dwells are gaps.
const GapFactor = 4

// Expect is the timing a test asked for.
type Expect struct {
	On  time.Duration
	Off time.Duration
}

// ExpectSpec returns the expectation for a pulse spec.
func ExpectSpec(s pulse.Spec) Expect {
	return Expect{On: s.OnTime, Off: s.OffTime}
}

// Report summarizes the phases measured since the last SetExpect.
type Report struct {
	Expect    Expect
	Tolerance Expect // Allowed deviation per phase
	On        sample.Stats
	Off       sample.Stats
	Late      int           // Phases longer than allowed
	Early     int           // Phases shorter than allowed
	Gaps      int           // Pauses, not counted in the stats
	Worst     time.Duration // Largest deviation from the expected width
}

// Within reports whether a phase met the tolerance. Gaps and phases
// without an expectation always do.
func (r Report) Within(s sample.Sample) bool {
	want, tol := r.Expect.On, r.Tolerance.On
	if s.Phase == pulse.PhaseOff {
		want, tol = r.Expect.Off, r.Tolerance.Off
	}
	if want <= 0 || s.Width > GapFactor*want {
		return true
	}
	dev := s.Width - want
	return dev <= tol && dev >= -tol
}

// Violations returns the number of out-of-tolerance phases.
func (r Report) Violations() int {
	return r.Late + r.Early
}

// TimingAudit processes samples, maintains a window and audits phases.
type TimingAudit interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample // Current window, oldest first
	Report() Report
	OnUpdate(func(samples []sample.Sample, report Report))
}

// Meter implements TimingAudit.
type Meter struct {
	mu      sync.RWMutex
	samples []sample.Sample // FIFO, removed by timestamp
	report  Report

	callbacks []func(samples []sample.Sample, report Report)
	cbMu      sync.RWMutex

	windowDuration time.Duration
	tolerancePct   float64
	minTolerance   time.Duration

	shutdown bool // Set when the input channel closes, prevents further callbacks
}

// New creates a meter from the audit section of cfg.
func New(cfg *config.Config) *Meter {
	return &Meter{
		windowDuration: time.Duration(cfg.Audit.WindowSeconds * float64(time.Second)),
		tolerancePct:   cfg.Audit.TolerancePct,
		minTolerance:   cfg.Audit.MinTolerance,
	}
}

// SetExpect starts a new audit against e. The sample window is kept.
func (m *Meter) SetExpect(e Expect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report = Report{
		Expect:    e,
		Tolerance: Expect{On: m.Tolerance(e.On), Off: m.Tolerance(e.Off)},
	}
}

// Tolerance returns the allowed deviation for a phase of width d.
func (m *Meter) Tolerance(d time.Duration) time.Duration {
	tol := time.Duration(float64(d) * m.tolerancePct / 100)
	return max(tol, m.minTolerance)
}

// ProcessSamples consumes input until it is closed. After that no callbacks
// are sent until ResetShutdown.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()
	m.samples = append(m.samples, s)

	cutoff := s.End().Add(-m.windowDuration)
	drop := 0
	for drop < len(m.samples) && m.samples[drop].End().Before(cutoff) {
		drop++
	}
	if drop > 0 {
		m.samples = m.samples[drop:]
	}

	m.audit(s)
	notify := !m.shutdown
	m.mu.Unlock()

	if notify {
		m.notifyCallbacks()
	}
}

// audit must be called with mu held.
func (m *Meter) audit(s sample.Sample) {
	want, tol := m.report.Expect.On, m.report.Tolerance.On
	stats := &m.report.On
	if s.Phase == pulse.PhaseOff {
		want, tol = m.report.Expect.Off, m.report.Tolerance.Off
		stats = &m.report.Off
	}
	if want <= 0 {
		return
	}
	if s.Width > GapFactor*want {
		m.report.Gaps++
		return
	}

	stats.Add(s.Width)
	dev := s.Width - want
	switch {
	case dev > tol:
		m.report.Late++
	case dev < -tol:
		m.report.Early++
	}
	if dev < 0 {
		dev = -dev
	}
	m.report.Worst = max(m.report.Worst, dev)
}

// Samples returns a copy of the current window.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Report returns the audit so far.
func (m *Meter) Report() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.report
}

// OnUpdate registers a callback invoked after every sample.
// The callback should copy data quickly and return as fast as possible.
func (m *Meter) OnUpdate(callback func(samples []sample.Sample, report Report)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again. Call it before starting a new chain.
func (m *Meter) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

func (m *Meter) notifyCallbacks() {
	samples := m.Samples()
	report := m.Report()

	m.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, report Report), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samples, report)
		}
	}
}
