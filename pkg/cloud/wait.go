package cloud

import (
	"context"
	"time"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

// Default wait settings.
const (
	DefaultPollInterval = time.Second
	DefaultWaitTimeout  = 10 * time.Minute
)

// Waiter polls until a condition holds.
type Waiter struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Wait calls poll until it reports done, returns an error, the timeout
// elapses, or ctx is cancelled. what describes the goal for the timeout error.
func (w Waiter) Wait(ctx context.Context, what string, poll func(context.Context) (bool, error)) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timedOut := func() error {
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "timed out after %s waiting for %s", timeout, what)
	}

	for {
		done, err := poll(ctx)
		if err != nil {
			// a poll cut short by the deadline is a timeout, not an API failure
			if ctx.Err() == context.DeadlineExceeded {
				return timedOut()
			}
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return timedOut()
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
