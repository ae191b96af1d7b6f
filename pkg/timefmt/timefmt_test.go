package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{name: "zero", ms: 0, want: "0ms"},
		{name: "negative clamps to zero", ms: -5, want: "0ms"},
		{name: "sub second", ms: 250, want: "250ms"},
		{name: "just under a second", ms: 999, want: "999ms"},
		{name: "one and a half seconds", ms: 1500, want: "1.50s"},
		{name: "seconds truncated not rounded", ms: 1999, want: "1.99s"},
		{name: "just under a minute", ms: 59999, want: "59.99s"},
		{name: "minute and a half", ms: 90000, want: "01m 30s"},
		{name: "hours", ms: 2*msPerHour + 5*msPerMinute + 7*msPerSecond + 999, want: "2h 05m 07s"},
		{name: "days", ms: 3*msPerDay + 4*msPerHour + 10*msPerMinute + 59*msPerSecond, want: "3d 4h 10m"},
		{name: "weeks", ms: 5*msPerWeek + 2*msPerDay + msPerHour, want: "5w 2d 1h"},
		{name: "exactly a year", ms: msPerYear, want: "1y 0w 0d"},
		{name: "years", ms: 2*msPerYear + 3*msPerWeek + 4*msPerDay, want: "2y 3w 4d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.ms, DefaultPrecision, false))
		})
	}
}

func TestFormat_TierBoundaries(t *testing.T) {
	assert.Equal(t, "1.00s", Format(msPerSecond, 1, false))
	assert.Equal(t, "01m 00s", Format(msPerMinute, 1, false))
	assert.Equal(t, "1h 00m 00s", Format(msPerHour, 1, false))
	assert.Equal(t, "1d 0h 00m", Format(msPerDay, 1, false))
	assert.Equal(t, "1w 0d 0h", Format(msPerWeek, 1, false))
}

func TestFormat_Verbose(t *testing.T) {
	tests := []struct {
		name      string
		ms        int64
		precision int
		want      string
	}{
		{name: "zero", ms: 0, precision: 3, want: "0y 0w 0d 0h 00m 00.000s"},
		{name: "all units", ms: msPerYear + msPerWeek + msPerDay + msPerHour + msPerMinute + 1234, precision: 3, want: "1y 1w 1d 1h 01m 01.234s"},
		{name: "one digit truncates", ms: 1999, precision: 1, want: "0y 0w 0d 0h 00m 01.9s"},
		{name: "precision clamped low", ms: 1999, precision: 0, want: "0y 0w 0d 0h 00m 01.9s"},
		{name: "precision clamped high", ms: 1005, precision: 9, want: "0y 0w 0d 0h 00m 01.005s"},
		{name: "negative", ms: -1, precision: 2, want: "0y 0w 0d 0h 00m 00.00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.ms, tt.precision, true))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0ms", FormatDuration(0, 1, false))
	assert.Equal(t, "0ms", FormatDuration(-time.Second, 1, false))
	assert.Equal(t, "4ms", FormatDuration(4*time.Millisecond, 1, false))
	assert.Equal(t, "1.5ms", FormatDuration(1550*time.Microsecond, 1, false))
	assert.Equal(t, "1.55ms", FormatDuration(1550*time.Microsecond, 3, false))
	assert.Equal(t, "1ms", FormatDuration(1550*time.Microsecond, 0, false))
	assert.Equal(t, "1.50s", FormatDuration(1500*time.Millisecond, 1, false))
	assert.Equal(t, "01m 30s", FormatDuration(90*time.Second, 1, false))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		want      string
	}{
		{name: "no rounding up", value: 22.229, precision: 2, want: "22.22"},
		{name: "binary artifact", value: 0.29, precision: 2, want: "0.29"},
		{name: "pads zeros", value: 20, precision: 2, want: "20.00"},
		{name: "integer precision", value: 99.99, precision: 0, want: "99"},
		{name: "repeating fraction", value: 100.0 / 3.0, precision: 3, want: "33.333"},
		{name: "negative", value: -1.239, precision: 2, want: "-1.23"},
		{name: "negative zero", value: -0.4, precision: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.value, tt.precision))
		})
	}
}

func TestTruncateRatio(t *testing.T) {
	assert.Equal(t, "1.50", TruncateRatio(1500, 1000, 2))
	assert.Equal(t, "33.33", TruncateRatio(100, 3, 2))
	assert.Equal(t, "66.66", TruncateRatio(200, 3, 2))
	assert.Equal(t, "2", TruncateRatio(5, 2, 0))
	assert.Equal(t, "-2.5", TruncateRatio(-5, 2, 1))
	assert.Equal(t, "0", TruncateRatio(5, 0, 2))
}
