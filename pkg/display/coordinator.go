package display

import "errors"

// Coordinator owns the popup-visibility state shared by all panes of a
// screen. While a popup is visible only popup panes may draw. A nil
// Coordinator never blocks rendering.
type Coordinator struct {
	popup     *Pane
	onDismiss []func() error
}

// NewCoordinator creates a coordinator with no popup visible.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// CanRender reports whether p may draw right now.
func (c *Coordinator) CanRender(p *Pane) bool {
	if c == nil || c.popup == nil {
		return true
	}
	return p == c.popup || p.IsPopup()
}

// PopupVisible reports whether a popup is on screen.
func (c *Coordinator) PopupVisible() bool {
	return c != nil && c.popup != nil
}

// ShowPopup marks p as the visible popup.
func (c *Coordinator) ShowPopup(p *Pane) {
	if c == nil {
		return
	}
	c.popup = p
}

// DismissPopup hides the popup and runs the dismiss callbacks so the screen
// underneath can redraw whatever changed while it was hidden.
func (c *Coordinator) DismissPopup() error {
	if c == nil {
		return nil
	}
	c.popup = nil

	var errs []error
	for _, fn := range c.onDismiss {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnDismiss registers fn to run after every DismissPopup.
func (c *Coordinator) OnDismiss(fn func() error) {
	if c == nil {
		return
	}
	c.onDismiss = append(c.onDismiss, fn)
}
