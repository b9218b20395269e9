// Package retry holds the single backoff policy used by every client
// component that talks to the remote backend.
package retry

import (
	"context"
	"sync/atomic"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy describes bounded linear backoff with optional jitter.
// Attempt n (1-based) waits BaseDelay*n before the next try.
type Policy struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
	Jitter      time.Duration
}

// DefaultPolicy matches the profile fetch behaviour: three attempts,
// 500ms, 1s between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Jitter:      100 * time.Millisecond,
	}
}

// NoRetry runs the operation exactly once
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

// Backoff builds a fresh go-retry backoff for one Do call
func (p Policy) Backoff() goretry.Backoff {
	var attempt uint64
	base := p.BaseDelay
	var b goretry.Backoff = goretry.BackoffFunc(func() (time.Duration, bool) {
		n := atomic.AddUint64(&attempt, 1)
		return time.Duration(n) * base, false
	})
	if p.Jitter > 0 {
		b = goretry.WithJitter(p.Jitter, b)
	}
	retries := uint64(0)
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return goretry.WithMaxRetries(retries, b)
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempt
// budget is spent or ctx is done. The last error from fn is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	return goretry.Do(ctx, p.Backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && retryable != nil && retryable(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}
