package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	}, isFlaky)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}
	calls := 0

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	}, isFlaky)

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 4, calls)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("not found")
	calls := 0

	err := DefaultPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	}, isFlaky)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestNoRetry(t *testing.T) {
	calls := 0
	err := NoRetry().Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	}, isFlaky)

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestBackoffIsLinear(t *testing.T) {
	b := Policy{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond}.Backoff()

	for _, want := range []time.Duration{10, 20, 30} {
		d, stop := b.Next()
		assert.False(t, stop)
		assert.Equal(t, want*time.Millisecond, d)
	}
	_, stop := b.Next()
	assert.True(t, stop)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 5, BaseDelay: time.Second}
	err := p.Do(ctx, func(context.Context) error { return errFlaky }, isFlaky)
	assert.Error(t, err)
}
