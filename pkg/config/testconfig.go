package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"gopkg.in/yaml.v3"
)

// MaxTitleLines is how many title lines fit in the header pane.
const MaxTitleLines = 2

// TestConfig is one burn-in test as stored in a TEST_<name>.yaml file.
//
// Timing is given either as pulse_width_ms + duty_cycle or as
// on_time_ms + off_time_ms. A nonzero pulse width takes priority.
type TestConfig struct {
	Title          Title           `yaml:"title"`
	Cycles         int             `yaml:"cycles"`
	PulseWidthMs   int64           `yaml:"pulse_width_ms,omitempty"`
	DutyCycle      float64         `yaml:"duty_cycle,omitempty"`
	OnTimeMs       int64           `yaml:"on_time_ms,omitempty"`
	OffTimeMs      int64           `yaml:"off_time_ms,omitempty"`
	Inverted       *bool           `yaml:"inverted,omitempty"`   // Active-low output; nil = device default
	HoldPower      *bool           `yaml:"hold_power,omitempty"` // Keep power on after the test; nil = device default
	Periodic       *PeriodicConfig `yaml:"periodic,omitempty"`
	MeasureCurrent *MeasureConfig  `yaml:"measure_current,omitempty"`
}

// PeriodicConfig holds the output at one level for a while every few cycles.
type PeriodicConfig struct {
	Every     int   `yaml:"every"`
	DwellMs   int64 `yaml:"dwell_ms"`
	Energized bool  `yaml:"energized"`
}

// MeasureConfig asks the operator to take a current reading before the test.
type MeasureConfig struct {
	Dwell time.Duration `yaml:"dwell"` // How long power stays on before the prompt
}

// Title is the header text. In YAML it is either a string or a list.
type Title []string

// UnmarshalYAML accepts a scalar as a one-line title.
func (t *Title) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*t = Title{value.Value}
		return nil
	}
	var lines []string
	if err := value.Decode(&lines); err != nil {
		return err
	}
	*t = lines
	return nil
}

// ParseTest decodes and validates a test file. Unknown keys are rejected so a
// typo cannot silently fall back to a default.
func ParseTest(data []byte) (*TestConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tc TestConfig
	if err := dec.Decode(&tc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty test file", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return &tc, nil
}

// Validate checks every field needed to start the test.
func (tc *TestConfig) Validate() error {
	if len(tc.Title) > MaxTitleLines {
		return fmt.Errorf("%w: title has %d lines, at most %d fit", ErrInvalid, len(tc.Title), MaxTitleLines)
	}
	if tc.Cycles < 1 {
		return fmt.Errorf("%w: cycles must be positive, got %d", ErrInvalid, tc.Cycles)
	}
	if _, err := tc.Spec(); err != nil {
		return err
	}
	if p := tc.Periodic; p != nil {
		if p.Every < 1 {
			return fmt.Errorf("%w: periodic.every must be positive, got %d", ErrInvalid, p.Every)
		}
		if p.DwellMs < 0 {
			return fmt.Errorf("%w: periodic.dwell_ms must not be negative", ErrInvalid)
		}
	}
	if m := tc.MeasureCurrent; m != nil && m.Dwell < 0 {
		return fmt.Errorf("%w: measure_current.dwell must not be negative", ErrInvalid)
	}
	return nil
}

// Spec derives the pulse timing.
func (tc *TestConfig) Spec() (pulse.Spec, error) {
	spec, err := pulse.Derive(tc.OnTimeMs, tc.OffTimeMs, tc.PulseWidthMs, tc.DutyCycle)
	if err != nil {
		return pulse.Spec{}, fmt.Errorf("%w: timing: %w", ErrInvalid, err)
	}
	return spec, nil
}

// IsInverted resolves the output polarity against the device default.
func (tc *TestConfig) IsInverted(def OutputConfig) bool {
	if tc.Inverted == nil {
		return def.Inverted
	}
	return *tc.Inverted
}

// HoldsPower resolves the hold-power flag against the device default.
func (tc *TestConfig) HoldsPower(def OutputConfig) bool {
	if tc.HoldPower == nil {
		return def.HoldPower
	}
	return *tc.HoldPower
}
