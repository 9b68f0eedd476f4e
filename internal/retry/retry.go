// Package retry wraps fallible operations with bounded exponential backoff.
// The delay before the k-th retry is baseDelay * 2^k (2x, 4x, 8x, ... the
// base), and every failure is retried identically up to the cap; callers that
// need error-type discrimination do it inside the operation.
package retry

import (
	"context"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
)

// Sleeper waits out a backoff delay. The default implementation honors
// context cancellation; tests inject a recording fake.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Option configures Do and DoValue.
type Option func(*options)

type options struct {
	maxRetries int
	baseDelay  time.Duration
	sleeper    Sleeper
}

func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.baseDelay = d
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleeper = s
		}
	}
}

// Do runs op, retrying on failure up to maxRetries additional times. The last
// failure is surfaced unmodified once the budget is exhausted. Exactly one
// terminal outcome per invocation: nothing is retried after success, after
// exhaustion, or after the context is cancelled mid-backoff.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	_, err := DoValue(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	o := options{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleeper:    defaultSleeper,
	}
	for _, fn := range opts {
		fn(&o)
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			// delay grows as base * 2^attempt, not doubling-from-base
			delay := o.baseDelay * time.Duration(1<<attempt)
			if err := o.sleeper(ctx, delay); err != nil {
				return zero, err
			}
		}
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, lastErr
}
