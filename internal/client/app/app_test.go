package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/client/backend"
	"estatehub/internal/client/backend/backendtest"
	"estatehub/internal/client/notice"
	"estatehub/internal/client/session"
	"estatehub/internal/core/access"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/retry"
)

func newApp(t *testing.T, fake *backendtest.Fake) (*App, *notice.Recorder) {
	t.Helper()
	rec := &notice.Recorder{}
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	a := New(fake.Backend(), Options{Notices: rec, Retry: &policy})
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Stop)
	return a, rec
}

func TestSignInLoadsProfileAndCart(t *testing.T) {
	fake := backendtest.New()
	uid := fake.AddUser("buyer@example.com", "secret123", domain.RoleUser)
	house := fake.AddListing(domain.Listing{ID: "house", Price: 200000, Category: domain.CategorySale})
	fake.SeedCart(uid, house)
	a, _ := newApp(t, fake)

	require.NoError(t, a.Session.SignIn(context.Background(), "buyer@example.com", "secret123"))

	require.NotNil(t, a.Profiles.Current())
	assert.Equal(t, access.False, a.Gate.IsPrivileged())
	assert.True(t, a.Cart.Contains(house))
}

func TestAdminGetsNoCart(t *testing.T) {
	fake := backendtest.New()
	fake.AddUser("admin@example.com", "secret123", domain.RoleAdmin)
	house := fake.AddListing(domain.Listing{ID: "house", Price: 200000, Category: domain.CategorySale})
	a, _ := newApp(t, fake)

	require.NoError(t, a.Session.SignIn(context.Background(), "admin@example.com", "secret123"))
	assert.Equal(t, access.True, a.Gate.IsPrivileged())
	assert.Equal(t, 0, fake.Calls(backendtest.OpCartList))

	assert.Error(t, a.Cart.Add(context.Background(), house))
	assert.Equal(t, 0, fake.Calls(backendtest.OpCartInsert))

	d := a.Gate.Guard(context.Background(), "/admin/listings", true)
	assert.Equal(t, access.Allow, d.Outcome)
}

func TestStandardUserDeniedAdminRoute(t *testing.T) {
	fake := backendtest.New()
	fake.AddUser("buyer@example.com", "secret123", domain.RoleUser)
	a, _ := newApp(t, fake)
	require.NoError(t, a.Session.SignIn(context.Background(), "buyer@example.com", "secret123"))

	_, d, err := a.Gate.Navigate(context.Background(), "admin/users")
	require.NoError(t, err)
	assert.Equal(t, access.Deny, d.Outcome)
	assert.Equal(t, "standard", d.Role)
}

func TestSwitchingUsersResetsCart(t *testing.T) {
	fake := backendtest.New()
	a1 := fake.AddUser("a@example.com", "secret123", domain.RoleUser)
	b1 := fake.AddUser("b@example.com", "secret123", domain.RoleUser)
	house := fake.AddListing(domain.Listing{ID: "house", Price: 200000, Category: domain.CategorySale})
	flat := fake.AddListing(domain.Listing{ID: "flat", Price: 1000, Category: domain.CategoryRent})
	fake.SeedCart(a1, house)
	fake.SeedCart(b1, flat)
	a, _ := newApp(t, fake)

	require.NoError(t, a.Session.SignIn(context.Background(), "a@example.com", "secret123"))
	require.True(t, a.Cart.Contains(house))

	a.Session.SignOut(context.Background())
	assert.Equal(t, 0, a.Cart.Count())
	assert.Nil(t, a.Profiles.Current())

	require.NoError(t, a.Session.SignIn(context.Background(), "b@example.com", "secret123"))
	assert.False(t, a.Cart.Contains(house))
	assert.True(t, a.Cart.Contains(flat))
	assert.Equal(t, b1, a.Profiles.Current().UserID)
}

func TestSignUpThenCheckout(t *testing.T) {
	fake := backendtest.New()
	house := fake.AddListing(domain.Listing{ID: "house", Price: 200000, Category: domain.CategorySale})
	a, _ := newApp(t, fake)

	require.NoError(t, a.Session.SignUp(context.Background(), "new@example.com", "secret123", "New Buyer", ""))
	assert.Equal(t, domain.RoleUser, a.Profiles.Current().Role)

	require.NoError(t, a.Cart.Add(context.Background(), house))
	b, err := a.Checkout(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, b.HasSale)
	assert.Equal(t, 100000.0, b.Sale.DownPayment)
	assert.Equal(t, 25000.0, b.Sale.MonthlyInstalment)
}

func TestCheckoutRequiresSessionAndItems(t *testing.T) {
	fake := backendtest.New()
	fake.AddUser("buyer@example.com", "secret123", domain.RoleUser)
	a, _ := newApp(t, fake)

	_, err := a.Checkout(context.Background(), 12)
	assert.ErrorIs(t, err, ErrCheckoutDenied)

	require.NoError(t, a.Session.SignIn(context.Background(), "buyer@example.com", "secret123"))
	_, err = a.Checkout(context.Background(), 12)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestStartRestoresPersistedSession(t *testing.T) {
	fake := backendtest.New()
	uid := fake.AddUser("buyer@example.com", "secret123", domain.RoleUser)
	fake.SetSession(&domain.Session{
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         domain.User{ID: uid, Email: "buyer@example.com"},
	})

	a, _ := newApp(t, fake)
	assert.Equal(t, session.Authenticated, a.Session.Current().State)
	require.NotNil(t, a.Profiles.Current())
	assert.Equal(t, uid, a.Profiles.Current().UserID)
}

func TestValidateSessionSignsOutExpired(t *testing.T) {
	fake := backendtest.New()
	fake.SessionTTL = -time.Minute
	fake.AddUser("buyer@example.com", "secret123", domain.RoleUser)
	a, rec := newApp(t, fake)
	require.NoError(t, a.Session.SignIn(context.Background(), "buyer@example.com", "secret123"))

	fake.FailAlways(backendtest.OpRefresh, &backend.Error{Kind: backend.ErrUnauthorized})
	err := a.ValidateSession(context.Background())
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.Equal(t, session.Anonymous, a.Session.Current().State)
	assert.Nil(t, a.Profiles.Current())
	assert.Equal(t, 1, rec.Count(notice.CodeSessionExpired))
}
