// Package loading wraps asynchronous resolution steps with an in-flight
// flag that is cleared on every exit path.
package loading

import (
	"context"
	"sync"
)

// Controller tracks in-flight operations. Concurrent calls are not
// coalesced: each runs, and Loading stays true until the last settles.
type Controller struct {
	mu       sync.Mutex
	inFlight int
	idle     chan struct{}
	onChange func(loading bool)
}

func NewController() *Controller {
	idle := make(chan struct{})
	close(idle)
	return &Controller{idle: idle}
}

// OnChange registers fn to be called whenever the flag flips. fn runs
// with the controller lock released.
func (c *Controller) OnChange(fn func(loading bool)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// WithLoading sets the flag, runs op and clears the flag again, also
// when op panics. The panic is re-raised after the flag is cleared.
func (c *Controller) WithLoading(ctx context.Context, op func(context.Context) error) error {
	c.begin()
	defer c.end()
	return op(ctx)
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// Wait blocks until no operation is in flight or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.inFlight++
	flipped := c.inFlight == 1
	if flipped {
		c.idle = make(chan struct{})
	}
	fn := c.onChange
	c.mu.Unlock()

	if flipped && fn != nil {
		fn(true)
	}
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inFlight--
	flipped := c.inFlight == 0
	if flipped {
		close(c.idle)
	}
	fn := c.onChange
	c.mu.Unlock()

	if flipped && fn != nil {
		fn(false)
	}
}
