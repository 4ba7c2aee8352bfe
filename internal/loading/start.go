package loading

import "context"

// Start is WithLoading in the background. The flag is already set when
// Start returns, so a Wait issued right after observes the operation.
// The returned channel yields op's error once and is then closed.
func (c *Controller) Start(ctx context.Context, op func(context.Context) error) <-chan error {
	c.begin()
	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer c.end()
		done <- op(ctx)
	}()
	return done
}
