package authz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/client/session"
	"estatehub/internal/core/access"
	"estatehub/internal/core/domain"
)

type stubSessions struct{ snap session.Snapshot }

func (s stubSessions) Current() session.Snapshot { return s.snap }

func signedIn(id string) stubSessions {
	return stubSessions{snap: session.Snapshot{State: session.Authenticated, User: &domain.User{ID: id}}}
}

type stubProfiles struct {
	mu   sync.Mutex
	p    *domain.Profile
	subs []func(*domain.Profile)
}

func (s *stubProfiles) Current() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Clone()
}

func (s *stubProfiles) Subscribe(fn func(*domain.Profile)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	return func() {}
}

func (s *stubProfiles) Set(p *domain.Profile) {
	s.mu.Lock()
	s.p = p
	subs := append([]func(*domain.Profile){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(p.Clone())
	}
}

func TestGuardRedirectsAnonymous(t *testing.T) {
	g := New(stubSessions{snap: session.Snapshot{State: session.Anonymous}}, &stubProfiles{})

	d := g.Guard(context.Background(), "/admin/listings", true)
	assert.Equal(t, access.Redirect, d.Outcome)
	assert.Equal(t, "/admin/listings", d.ReturnTo)
}

func TestGuardDeniesStandardUserNamingRole(t *testing.T) {
	g := New(signedIn("u1"), &stubProfiles{p: &domain.Profile{UserID: "u1", Role: domain.RoleUser}})

	d := g.Guard(context.Background(), "/admin/users", true)
	assert.Equal(t, access.Deny, d.Outcome)
	assert.Equal(t, "standard", d.Role)
	assert.Empty(t, d.ReturnTo)
}

func TestGuardAllowsAdmin(t *testing.T) {
	g := New(signedIn("u1"), &stubProfiles{p: &domain.Profile{UserID: "u1", Role: domain.RoleAdmin}})

	assert.Equal(t, access.True, g.IsPrivileged())
	assert.Equal(t, access.Allow, g.Guard(context.Background(), "/admin/users", true).Outcome)
}

func TestGuardAllowsSignedInOnNonAdminRouteWithoutProfile(t *testing.T) {
	g := New(signedIn("u1"), &stubProfiles{})
	assert.Equal(t, access.Allow, g.Guard(context.Background(), "/cart", false).Outcome)
}

func TestGuardWaitsForLoadingProfile(t *testing.T) {
	profiles := &stubProfiles{}
	g := New(signedIn("u1"), profiles).WithWait(2 * time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		profiles.Set(&domain.Profile{UserID: "u1", Role: domain.RoleAdmin})
	}()

	start := time.Now()
	d := g.Guard(context.Background(), "/admin/listings", true)
	assert.Equal(t, access.Allow, d.Outcome)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuardGivesUpAfterTimeout(t *testing.T) {
	g := New(signedIn("u1"), &stubProfiles{}).WithWait(20 * time.Millisecond)

	d := g.Guard(context.Background(), "/admin/listings", true)
	assert.Equal(t, access.Deny, d.Outcome)
	assert.Equal(t, "unknown", d.Role)
}

func TestIsPrivilegedIgnoresOtherUsersProfile(t *testing.T) {
	g := New(signedIn("u2"), &stubProfiles{p: &domain.Profile{UserID: "u1", Role: domain.RoleAdmin}})
	assert.Equal(t, access.Unknown, g.IsPrivileged())
}

func TestIsPrivilegedFollowsProfileChanges(t *testing.T) {
	profiles := &stubProfiles{p: &domain.Profile{UserID: "u1", Role: domain.RoleUser}}
	g := New(signedIn("u1"), profiles)
	assert.Equal(t, access.False, g.IsPrivileged())

	profiles.Set(&domain.Profile{UserID: "u1", Role: domain.RoleAdmin})
	assert.Equal(t, access.True, g.IsPrivileged())
}

func TestNavigate(t *testing.T) {
	g := New(stubSessions{snap: session.Snapshot{State: session.Anonymous}}, &stubProfiles{})

	r, d, err := g.Navigate(context.Background(), "listings")
	require.NoError(t, err)
	assert.Equal(t, "/listings", r.Path)
	assert.Equal(t, access.Allow, d.Outcome)

	_, d, err = g.Navigate(context.Background(), "checkout")
	require.NoError(t, err)
	assert.Equal(t, access.Redirect, d.Outcome)
	assert.Equal(t, "/checkout", d.ReturnTo)

	_, _, err = g.Navigate(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrUnknownRoute)
}
