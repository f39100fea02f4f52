// Package retry provides a bounded retry policy with an explicit delay schedule.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Do returns it after the
// current attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Policy describes how many times an operation is retried and how long to
// wait before each retry.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is multiplied by the retry number: 1x, 2x, 3x...
	BaseDelay time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Linear returns a policy with delays base, 2*base, ... up to maxRetries retries.
func Linear(maxRetries int, base time.Duration) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: base}
}

// Delay returns the wait before retry n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	return time.Duration(n) * p.BaseDelay
}

// Result is the outcome of Do.
type Result[T any] struct {
	Value    T
	Attempts int
	Err      error // last error when the policy was exhausted or ctx ended
}

// OK reports whether an attempt succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Do runs fn until it succeeds, the retries are exhausted or ctx is done.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) Result[T] {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var (
		res     Result[T]
		lastErr error
	)
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.Delay(attempt)); err != nil {
				res.Err = errors.Join(ErrExhausted, err, lastErr)
				return res
			}
		}

		res.Attempts++
		v, err := fn(ctx)
		if err == nil {
			res.Value = v
			return res
		}
		lastErr = err
		var pe *permanentError
		if errors.As(err, &pe) {
			res.Err = pe.err
			return res
		}
	}

	res.Err = errors.Join(ErrExhausted, lastErr)
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
