package meter

import (
	"sync"
	"testing"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/sample"
	"github.com/stretchr/testify/assert"
)

// run feeds samples through ProcessSamples and waits for it to return.
func run(t *testing.T, m *Meter, samples ...sample.Sample) {
	t.Helper()

	input := make(chan sample.Sample, len(samples))
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.ProcessSamples(input)
	}()
	for _, s := range samples {
		input <- s
	}
	close(input)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessSamples did not finish within timeout")
	}
}

// TestMeter_GracefulShutdown_NoCallbacksAfterClose tests that meter stops
// sending callbacks after the input channel is closed.
func TestMeter_GracefulShutdown_NoCallbacksAfterClose(t *testing.T) {
	m := New(config.Default())

	var mu sync.Mutex
	count := 0
	m.OnUpdate(func([]sample.Sample, Report) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	now := time.Now()
	run(t, m,
		sample.Sample{Timestamp: now, Phase: pulse.PhaseOn, Width: time.Millisecond},
		sample.Sample{Timestamp: now.Add(time.Millisecond), Phase: pulse.PhaseOff, Width: time.Millisecond},
	)
	mu.Lock()
	assert.Equal(t, 2, count)
	mu.Unlock()

	m.processSample(sample.Sample{Timestamp: now.Add(2 * time.Millisecond), Phase: pulse.PhaseOn, Width: time.Millisecond})
	mu.Lock()
	assert.Equal(t, 2, count, "No callbacks should be sent after channel closes")
	mu.Unlock()
	assert.Len(t, m.Samples(), 3, "samples are still recorded")
}

// TestMeter_ResetShutdown tests that ResetShutdown allows callbacks again.
func TestMeter_ResetShutdown(t *testing.T) {
	m := New(config.Default())

	var mu sync.Mutex
	count := 0
	m.OnUpdate(func([]sample.Sample, Report) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	now := time.Now()
	run(t, m, sample.Sample{Timestamp: now, Phase: pulse.PhaseOn, Width: time.Millisecond})
	m.ResetShutdown()
	run(t, m, sample.Sample{Timestamp: now.Add(time.Millisecond), Phase: pulse.PhaseOff, Width: time.Millisecond})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count, "Callbacks should resume after ResetShutdown")
}
