// Package timefmt renders millisecond durations as short strings that fit on
// a small LCD line.
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
	msPerWeek   = 7 * msPerDay
	msPerYear   = 52 * msPerWeek // 31449600000
)

// DefaultPrecision is the number of fractional digits used when callers have
// no preference.
const DefaultPrecision = 1

// Format converts milliseconds into a human readable string.
//
// When verbose is false a single tier is chosen by magnitude, e.g. "250ms",
// "1.50s", "01m 30s", "2h 05m 00s", "3d 4h 10m", "5w 2d 1h", "1y 3w 2d".
// When verbose is true every unit is printed and precision selects how many
// digits of the millisecond field are kept (1..3, truncated).
//
// Negative values are clamped to zero. Remainders are always truncated.
func Format(ms int64, precision int, verbose bool) string {
	if ms < 0 {
		ms = 0
	}
	if verbose {
		return formatVerbose(ms, precision)
	}

	switch {
	case ms < msPerSecond:
		return strconv.FormatInt(ms, 10) + "ms"
	case ms < msPerMinute:
		return TruncateRatio(ms, msPerSecond, 2) + "s"
	case ms < msPerHour:
		minutes := ms / msPerMinute
		seconds := ms % msPerMinute / msPerSecond
		return fmt.Sprintf("%02dm %02ds", minutes, seconds)
	case ms < msPerDay:
		hours := ms / msPerHour
		minutes := ms % msPerHour / msPerMinute
		seconds := ms % msPerMinute / msPerSecond
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
	case ms < msPerWeek:
		days := ms / msPerDay
		hours := ms % msPerDay / msPerHour
		minutes := ms % msPerHour / msPerMinute
		return fmt.Sprintf("%dd %dh %02dm", days, hours, minutes)
	case ms < msPerYear:
		weeks := ms / msPerWeek
		days := ms % msPerWeek / msPerDay
		hours := ms % msPerDay / msPerHour
		return fmt.Sprintf("%dw %dd %dh", weeks, days, hours)
	default:
		years := ms / msPerYear
		weeks := ms % msPerYear / msPerWeek
		days := ms % msPerWeek / msPerDay
		return fmt.Sprintf("%dy %dw %dd", years, weeks, days)
	}
}

func formatVerbose(ms int64, precision int) string {
	digits := precision
	if digits < 1 {
		digits = 1
	}
	if digits > 3 {
		digits = 3
	}

	years := ms / msPerYear
	weeks := ms % msPerYear / msPerWeek
	days := ms % msPerWeek / msPerDay
	hours := ms % msPerDay / msPerHour
	minutes := ms % msPerHour / msPerMinute
	seconds := ms % msPerMinute / msPerSecond

	frac := ms % msPerSecond
	for i := digits; i < 3; i++ {
		frac /= 10
	}

	return fmt.Sprintf("%dy %dw %dd %dh %02dm %02d.%0*ds",
		years, weeks, days, hours, minutes, seconds, digits, frac)
}

// FormatDuration is Format for a time.Duration. Below one second the value is
// printed in fractional milliseconds, truncated to precision digits with
// trailing zeros dropped ("1.5ms", "0ms").
func FormatDuration(d time.Duration, precision int, verbose bool) string {
	if d < 0 {
		d = 0
	}
	if verbose || d >= time.Second {
		return Format(d.Milliseconds(), precision, verbose)
	}

	s := TruncateRatio(int64(d), int64(time.Millisecond), precision)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s + "ms"
}

// Truncate cuts value to precision decimal places without rounding.
//
// The float is first rendered with the shortest representation that round
// trips, and the digits are then cut as text, so binary artifacts such as
// 0.29 printing as 0.28999 never leak into the result.
func Truncate(value float64, precision int) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if precision <= 0 {
		if whole == "-0" {
			return "0"
		}
		return whole
	}
	if len(frac) < precision {
		frac += strings.Repeat("0", precision-len(frac))
	}
	return whole + "." + frac[:precision]
}

// TruncateRatio returns num/den as a decimal string truncated to precision
// places, using integer arithmetic only. den must be positive.
func TruncateRatio(num, den int64, precision int) string {
	if den <= 0 {
		return "0"
	}

	var b strings.Builder
	if num < 0 {
		b.WriteByte('-')
		num = -num
	}
	b.WriteString(strconv.FormatInt(num/den, 10))
	if precision <= 0 {
		return b.String()
	}

	b.WriteByte('.')
	rem := num % den
	for range precision {
		rem *= 10
		b.WriteByte(byte('0' + rem/den))
		rem %= den
	}
	return b.String()
}
