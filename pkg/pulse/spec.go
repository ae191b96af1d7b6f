package pulse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/timefmt"
)

// DutyDigits is the number of decimals kept when a duty cycle is derived
// from on/off times.
const DutyDigits = 2

// ErrInvalid is returned for timing parameters that cannot drive a test.
var ErrInvalid = errors.New("invalid pulse timing")

// Spec describes one ON+OFF cycle. Exactly one of (PulseWidth, DutyCycle)
// and (OnTime, OffTime) was authoritative when the Spec was derived; the other
// pair is always recomputed from it.
type Spec struct {
	OnTime     time.Duration
	OffTime    time.Duration
	PulseWidth time.Duration
	DutyCycle  float64 // percent, 0..100
}

// Derive builds a Spec from test-configuration values. A nonzero pulse width
// takes priority: on = floor(pw*duty/100) and off = pw-on. Otherwise the
// on/off times are used as given and the duty cycle is back-derived,
// truncated to DutyDigits decimals.
func Derive(onMs, offMs, pulseWidthMs int64, duty float64) (Spec, error) {
	return DeriveDigits(onMs, offMs, pulseWidthMs, duty, DutyDigits)
}

// DeriveDigits is Derive with an explicit number of duty-cycle decimals.
func DeriveDigits(onMs, offMs, pulseWidthMs int64, duty float64, digits int) (Spec, error) {
	if onMs < 0 || offMs < 0 || pulseWidthMs < 0 {
		return Spec{}, fmt.Errorf("%w: negative time (on=%d off=%d pw=%d)", ErrInvalid, onMs, offMs, pulseWidthMs)
	}

	if pulseWidthMs != 0 {
		if math.IsNaN(duty) || duty < 0 || duty > 100 {
			return Spec{}, fmt.Errorf("%w: duty cycle %v outside [0,100]", ErrInvalid, duty)
		}
		on := int64(math.Floor(float64(pulseWidthMs) * duty / 100))
		return Spec{
			OnTime:     ms(on),
			OffTime:    ms(pulseWidthMs - on),
			PulseWidth: ms(pulseWidthMs),
			DutyCycle:  duty,
		}, nil
	}

	pw := onMs + offMs
	if pw == 0 {
		return Spec{}, fmt.Errorf("%w: pulse width and on/off times are all zero", ErrInvalid)
	}

	dutyText := timefmt.TruncateRatio(onMs*100, pw, digits)
	derived, err := strconv.ParseFloat(dutyText, 64)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: duty cycle %q: %v", ErrInvalid, dutyText, err)
	}

	return Spec{
		OnTime:     ms(onMs),
		OffTime:    ms(offMs),
		PulseWidth: ms(pw),
		DutyCycle:  derived,
	}, nil
}

// Period is the length of one full cycle.
func (s Spec) Period() time.Duration {
	return s.OnTime + s.OffTime
}

// Total is the nominal length of a test of n cycles.
func (s Spec) Total(cycles int) time.Duration {
	if cycles < 0 {
		cycles = 0
	}
	return s.Period() * time.Duration(cycles)
}

// Remaining is the nominal time left after completed of total cycles.
func (s Spec) Remaining(completed, total int) time.Duration {
	return s.Total(total - completed)
}

// DutyText formats the duty cycle without trailing zeros, e.g. "22" or
// "21.96".
func (s Spec) DutyText() string {
	return strconv.FormatFloat(s.DutyCycle, 'f', -1, 64)
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
