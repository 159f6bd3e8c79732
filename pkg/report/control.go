package report

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrUnbound is returned when a control is triggered before anything is bound to it.
var ErrUnbound = errors.New("control has no action bound")

// Control is a document control, such as the download button. Its
// visibility may be toggled from an export goroutine while the UI reads it.
type Control struct {
	label  string
	hidden atomic.Bool

	mu     sync.Mutex
	action func(ctx context.Context) (string, error)
}

// NewControl creates a visible, unbound control.
func NewControl(label string) *Control {
	return &Control{label: label}
}

// Label returns the control's caption.
func (c *Control) Label() string { return c.label }

// Visible reports whether the control is shown.
func (c *Control) Visible() bool { return !c.hidden.Load() }

// Hide removes the control from view and from captures.
func (c *Control) Hide() { c.hidden.Store(true) }

// Show restores the control.
func (c *Control) Show() { c.hidden.Store(false) }

// Bind replaces the control's action.
func (c *Control) Bind(action func(ctx context.Context) (string, error)) {
	c.mu.Lock()
	c.action = action
	c.mu.Unlock()
}

// Trigger runs the bound action.
func (c *Control) Trigger(ctx context.Context) (string, error) {
	c.mu.Lock()
	action := c.action
	c.mu.Unlock()
	if action == nil {
		return "", ErrUnbound
	}
	return action(ctx)
}
