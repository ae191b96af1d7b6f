package output

// Output is the single boolean drive under test: a relay coil or a GPIO pin.
type Output interface {
	SetHigh() error
	SetLow() error
	Read() bool
}

// Ensure Serial implements Output.
var _ Output = (*Serial)(nil)

// Ensure Mock implements Output.
var _ Output = (*Mock)(nil)

// Toggle inverts the current state of o.
func Toggle(o Output) error {
	if o.Read() {
		return o.SetLow()
	}
	return o.SetHigh()
}

// Set drives o to the given level.
func Set(o Output, high bool) error {
	if high {
		return o.SetHigh()
	}
	return o.SetLow()
}

// Invert wraps o so that logical high drives the physical line low. Used for
// active-low relay boards.
func Invert(o Output) Output {
	if inv, ok := o.(inverted); ok {
		return inv.Output
	}
	return inverted{o}
}

// Polarity returns o as seen by a relay that is active low when inverted is
// set. SetLow on the result always de-energizes the relay.
func Polarity(o Output, inverted bool) Output {
	if inverted {
		return Invert(o)
	}
	return o
}

type inverted struct {
	Output
}

func (i inverted) SetHigh() error { return i.Output.SetLow() }
func (i inverted) SetLow() error  { return i.Output.SetHigh() }
func (i inverted) Read() bool     { return !i.Output.Read() }

// Watch wraps o so that fn is called with the new level after every
// successful write. Failed writes are not reported.
func Watch(o Output, fn func(high bool)) Output {
	return watched{Output: o, fn: fn}
}

type watched struct {
	Output
	fn func(high bool)
}

func (w watched) SetHigh() error {
	if err := w.Output.SetHigh(); err != nil {
		return err
	}
	w.fn(true)
	return nil
}

func (w watched) SetLow() error {
	if err := w.Output.SetLow(); err != nil {
		return err
	}
	w.fn(false)
	return nil
}
