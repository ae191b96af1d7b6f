package runner

import (
	"time"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/output"
)

// FromConfig builds a runner for a loaded test file. Polarity and hold-power
// fall back to the device defaults in def; a periodic dwell in the file is
// installed unless opts already set a periodic callback.
func FromConfig(out output.Output, tc *config.TestConfig, def config.OutputConfig, opts ...Option) (*Runner, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	spec, err := tc.Spec()
	if err != nil {
		return nil, err
	}
	out = output.Polarity(out, tc.IsInverted(def))

	base := []Option{
		WithTitle(tc.Title...),
		WithHoldPower(tc.HoldsPower(def)),
	}
	r := New(out, tc.Cycles, spec, append(base, opts...)...)

	if p := tc.Periodic; p != nil && r.periodic == nil {
		r.periodic = r.Dwell(time.Duration(p.DwellMs)*time.Millisecond, p.Energized)
		r.every = p.Every
	}
	return r, nil
}
