package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/client/backend"
	"estatehub/internal/client/backend/backendtest"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/retry"
)

var fastRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T, role domain.Role) (*Cache, *backendtest.Fake, *fixedClock, string) {
	t.Helper()
	fake := backendtest.New()
	uid := fake.AddUser("buyer@example.com", "secret123", role)
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New(fake.Backend().Profiles, WithPolicy(fastRetry), WithClock(clock.Now))
	c.Bind(&domain.User{ID: uid, Email: "buyer@example.com"})
	return c, fake, clock, uid
}

func TestFetchWithinWindowSkipsBackend(t *testing.T) {
	c, fake, clock, uid := setup(t, domain.RoleUser)

	p, err := c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, p.Role)

	clock.Advance(4 * time.Minute)
	_, err = c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls(backendtest.OpProfileGet))

	clock.Advance(2 * time.Minute)
	_, err = c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls(backendtest.OpProfileGet))
}

func TestForceFreshBypassesWindow(t *testing.T) {
	c, fake, _, uid := setup(t, domain.RoleUser)

	_, err := c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), uid, true)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls(backendtest.OpProfileGet))
}

func TestTransientFailuresAreRetried(t *testing.T) {
	c, fake, _, uid := setup(t, domain.RoleAdmin)
	transient := &backend.Error{Kind: backend.ErrTransient}
	fake.FailNext(backendtest.OpProfileGet, transient, transient)

	p, err := c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)
	assert.Equal(t, 3, fake.Calls(backendtest.OpProfileGet))
}

func TestExhaustedRetriesKeepLastKnown(t *testing.T) {
	c, fake, _, uid := setup(t, domain.RoleAdmin)
	_, err := c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)

	fake.FailAlways(backendtest.OpProfileGet, &backend.Error{Kind: backend.ErrTransient})
	p, err := c.Fetch(context.Background(), uid, true)
	assert.ErrorIs(t, err, backend.ErrTransient)
	require.NotNil(t, p)
	assert.Equal(t, domain.RoleAdmin, p.Role)
	assert.Equal(t, domain.RoleAdmin, c.Current().Role)
	assert.Equal(t, 1+int(fastRetry.MaxAttempts), fake.Calls(backendtest.OpProfileGet))
}

func TestNonTransientFailureIsNotRetried(t *testing.T) {
	c, fake, _, uid := setup(t, domain.RoleUser)
	fake.FailNext(backendtest.OpProfileGet, &backend.Error{Kind: backend.ErrForbidden})

	_, err := c.Fetch(context.Background(), uid, false)
	assert.ErrorIs(t, err, backend.ErrForbidden)
	assert.Equal(t, 1, fake.Calls(backendtest.OpProfileGet))
	assert.Nil(t, c.Current())
}

func TestNotFoundCreatesDefaultProfile(t *testing.T) {
	fake := backendtest.New()
	uid := fake.AddUser("new@example.com", "secret123", "")
	c := New(fake.Backend().Profiles, WithPolicy(fastRetry))
	c.Bind(&domain.User{ID: uid, Email: "new@example.com", Metadata: map[string]string{
		domain.MetaFullName: "New Buyer",
		domain.MetaPhone:    "555-0100",
	}})

	p, err := c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, p.Role)
	assert.Equal(t, "New Buyer", p.FullName)
	assert.Equal(t, "555-0100", p.Phone)
	assert.Equal(t, 1, fake.Calls(backendtest.OpProfileInsert))
	assert.Equal(t, 2, fake.Calls(backendtest.OpProfileGet))
}

func TestConcurrentFetchesShareOneRead(t *testing.T) {
	c, fake, _, uid := setup(t, domain.RoleUser)
	fake.Before = func(ctx context.Context, op string) error {
		if op == backendtest.OpProfileGet {
			time.Sleep(30 * time.Millisecond)
		}
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Fetch(context.Background(), uid, false)
			assert.NoError(t, err)
			assert.NotNil(t, p)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fake.Calls(backendtest.OpProfileGet))
}

func TestFetchForOtherUserIsRejected(t *testing.T) {
	c, fake, _, _ := setup(t, domain.RoleUser)
	_, err := c.Fetch(context.Background(), "someone-else", false)
	assert.ErrorIs(t, err, ErrNotCurrent)
	assert.Equal(t, 0, fake.Calls(backendtest.OpProfileGet))
}

func TestResultForPreviousIdentityIsDropped(t *testing.T) {
	c, fake, _, uid := setup(t, domain.RoleAdmin)
	fake.Before = func(ctx context.Context, op string) error {
		if op == backendtest.OpProfileGet {
			c.Bind(&domain.User{ID: "user-b"})
		}
		return nil
	}

	_, _ = c.Fetch(context.Background(), uid, false)
	assert.Nil(t, c.Current())
	assert.Equal(t, "user-b", c.UserID())
}

func TestSubscribeAndReset(t *testing.T) {
	c, _, _, uid := setup(t, domain.RoleUser)

	var seen []*domain.Profile
	unsubscribe := c.Subscribe(func(p *domain.Profile) { seen = append(seen, p) })
	defer unsubscribe()

	_, err := c.Fetch(context.Background(), uid, false)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), uid, true)
	require.NoError(t, err)
	c.Reset()

	require.Len(t, seen, 2, "unchanged re-fetch does not notify")
	assert.Equal(t, uid, seen[0].UserID)
	assert.Nil(t, seen[1])
	assert.Nil(t, c.Current())
}
