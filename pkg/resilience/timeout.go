package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout bounds fn by a deadline on a derived context. fn must honor
// cancellation; cluster fetches do, so there is no detached goroutine here
// and no work keeps running after the caller gives up. A timeout of zero or
// less applies no bound. When fn fails because the deadline passed, the
// returned error names the operation and wraps context.DeadlineExceeded; a
// cancelled parent context is reported as the parent's own error.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(deadlineCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %v", name, context.DeadlineExceeded, timeout)
	}
	return err
}
