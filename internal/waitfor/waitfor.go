// Package waitfor implements the bounded readiness poll: a probe is retried
// at a constant interval until it reports done, fails permanently, or the
// attempt budget runs out. Sleeping between attempts is the only waiting
// mechanism; there are no watches or subscriptions.
package waitfor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Defaults applied when Options fields are zero. 31 attempts at one second
// gives the service roughly half a minute to come up.
const (
	DefaultInterval    = time.Second
	DefaultMaxAttempts = 31
)

// Options bounds a poll.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
}

// Probe reports whether the awaited condition holds yet. A non-nil error is
// permanent and aborts the poll immediately; "not ready yet" is (false, nil).
type Probe func(ctx context.Context) (bool, error)

// TimeoutError is returned when every attempt reported not-ready.
type TimeoutError struct {
	Attempts int
	Interval time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("not ready after %d attempts at %s intervals", e.Attempts, e.Interval)
}

var errNotReady = errors.New("not ready yet")

// Until polls probe until it succeeds, fails permanently, the context is
// canceled, or opts.MaxAttempts is exhausted. Exhaustion yields a
// *TimeoutError; a permanent probe error is returned as-is so callers can
// tell a crashed service from a slow one.
func Until(ctx context.Context, opts Options, probe Probe) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	// A permanent probe error stops retry.Do but comes back unwrapped, so
	// it is captured here to distinguish it from exhaustion.
	var fatal error

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		done, probeErr := probe(ctx)
		if probeErr != nil {
			fatal = probeErr
			return probeErr
		}
		if done {
			return nil
		}
		return retry.RetryableError(errNotReady)
	})

	switch {
	case err == nil:
		return nil
	case fatal != nil:
		return fatal
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &TimeoutError{Attempts: attempts, Interval: interval}
	}
}
