package sample

import (
	"time"
)

// Stats accumulates phase widths.
type Stats struct {
	Count int
	Min   time.Duration
	Max   time.Duration
	Sum   time.Duration
}

// Add records one width.
func (s *Stats) Add(w time.Duration) {
	if s.Count == 0 || w < s.Min {
		s.Min = w
	}
	if s.Count == 0 || w > s.Max {
		s.Max = w
	}
	s.Count++
	s.Sum += w
}

// Mean returns the average width, or zero when nothing was recorded.
func (s Stats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / time.Duration(s.Count)
}

// Jitter is the spread between the longest and shortest width.
func (s Stats) Jitter() time.Duration {
	return s.Max - s.Min
}

// NewAveragingConverter smooths samples with a moving average over the last
// windowSize phases of the same kind. Each input sample produces one output
// sample carrying the averaged width.
func NewAveragingConverter(windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			// Indexed by pulse.Phase.
			var windows [2][]time.Duration
			for s := range in {
				i := int(s.Phase)
				w := append(windows[i], s.Width)
				if len(w) > windowSize {
					w = w[1:]
				}
				windows[i] = w

				var sum time.Duration
				for _, d := range w {
					sum += d
				}
				s.Width = sum / time.Duration(len(w))
				out <- s
			}
		}()

		return out
	}
}
