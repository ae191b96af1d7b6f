package sample

import (
	"testing"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	var s Stats
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.Jitter())

	for _, ms := range []int{10, 12, 8, 10} {
		s.Add(time.Duration(ms) * time.Millisecond)
	}
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 8*time.Millisecond, s.Min)
	assert.Equal(t, 12*time.Millisecond, s.Max)
	assert.Equal(t, 10*time.Millisecond, s.Mean())
	assert.Equal(t, 4*time.Millisecond, s.Jitter())
}

func TestAveragingConverter(t *testing.T) {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	in := []Sample{
		{Phase: pulse.PhaseOn, Width: ms(10)},
		{Phase: pulse.PhaseOff, Width: ms(40)},
		{Phase: pulse.PhaseOn, Width: ms(20)},
		{Phase: pulse.PhaseOff, Width: ms(20)},
		{Phase: pulse.PhaseOn, Width: ms(30)},
		{Phase: pulse.PhaseOn, Width: ms(40)},
	}
	want := []time.Duration{ms(10), ms(40), ms(15), ms(30), ms(25), ms(35)}

	ch := make(chan Sample, len(in))
	for _, s := range in {
		ch <- s
	}
	close(ch)

	var got []time.Duration
	for s := range NewAveragingConverter(2, 0)(ch) {
		got = append(got, s.Width)
	}
	assert.Equal(t, want, got, "on and off phases are averaged separately")
}
