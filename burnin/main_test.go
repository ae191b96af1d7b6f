package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its output. Flags are
// reset so tests do not leak into each other.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	runFlags = struct {
		mock    bool
		port    string
		cycles  int
		average int
		png     string
	}{}
	configFile = filepath.Join(t.TempDir(), "missing.yaml")
	testsDir = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--config", configFile))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	for _, want := range []string{"NAME", "31334", "32109", "quick", "soak", "5,000", "66ms", "264ms", "27m 30s"} {
		assert.Contains(t, out, want)
	}
}

func TestList_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TEST_relay.yaml"),
		[]byte("title: Relay\ncycles: 1200\non_time_ms: 500\noff_time_ms: 1500\n"), 0o644))

	out, err := execute(t, "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "relay")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "1.50s")
	assert.NotContains(t, out, "31334")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "OK"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TEST_good.yaml"), []byte("cycles: 1\non_time_ms: 5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TEST_bad.yaml"), []byte("cycles: 0\non_time_ms: 5\n"), 0o644))

	out, err = execute(t, "check", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 tests are invalid")
	assert.Contains(t, out, "FAIL bad")
	assert.Contains(t, out, "good")
}

func TestRun_Mock(t *testing.T) {
	shot := filepath.Join(t.TempDir(), "screen.png")

	start := time.Now()
	out, err := execute(t, "run", "quick", "--mock", "--cycles", "5", "--png", shot)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	assert.Contains(t, out, "5 of 5 cycles")
	assert.Contains(t, out, "EXPECTED")
	assert.Contains(t, out, "4ms")
	assert.Contains(t, out, "Screen saved to")

	f, err := os.Open(shot)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestRun_UnknownTest(t *testing.T) {
	_, err := execute(t, "run", "nope", "--mock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "burnin dev\n", out)
}

func TestProgressLine(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		elapsed   time.Duration
		want      string
	}{
		{name: "start", completed: 0, total: 5000, want: "0 of 5,000 cycles"},
		{name: "running", completed: 1000, total: 5000, elapsed: 10 * time.Second, want: "1,000 of 5,000 cycles  left 40.00s"},
		{name: "done", completed: 5000, total: 5000, elapsed: time.Minute, want: "5,000 of 5,000 cycles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strings.TrimSpace(progressLine(tt.completed, tt.total, tt.elapsed)))
		})
	}
}

func TestProgress_Throttled(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 10)
	now := p.start
	p.now = func() time.Time { return now }

	p.Update(1, 10)
	p.Update(2, 10)
	now = now.Add(progressInterval)
	p.Update(3, 10)
	p.Update(10, 10)
	p.Done(pulse.Result{Completed: 10, Elapsed: time.Second})

	out := buf.String()
	assert.Contains(t, out, "1 of 10")
	assert.NotContains(t, out, "2 of 10", "too soon after the previous redraw")
	assert.Contains(t, out, "3 of 10")
	assert.Equal(t, 2, strings.Count(out, "10 of 10"), "the last cycle is always shown")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestFormatReport(t *testing.T) {
	var on, off sample.Stats
	on.Add(4 * time.Millisecond)
	on.Add(6 * time.Millisecond)
	off.Add(4 * time.Millisecond)

	out := formatReport(meter.Report{
		Expect: meter.Expect{On: 4 * time.Millisecond, Off: 4 * time.Millisecond},
		On:     on,
		Off:    off,
	})
	assert.Contains(t, out, "All phases within tolerance")
	assert.Contains(t, out, "2ms", "jitter")

	out = formatReport(meter.Report{Late: 1200, Early: 3, Gaps: 2, Worst: 1500 * time.Millisecond})
	assert.Contains(t, out, "1,203 phases out of tolerance (1200 late, 3 early)")
	assert.Contains(t, out, "worst deviation 1.50s, 2 pauses skipped")
}

func TestOpenRelay_Mock(t *testing.T) {
	tests := []struct {
		name     string
		inverted bool
		wantRaw  bool
	}{
		{name: "active high", inverted: false, wantRaw: false},
		{name: "active low", inverted: true, wantRaw: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, closeRelay, err := openRelay(config.Default(), true, tt.inverted)
			require.NoError(t, err)
			defer closeRelay()
			assert.Equal(t, tt.wantRaw, raw.Read(), "the relay starts released")
		})
	}
}
