package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/client/backend"
	"estatehub/internal/core/domain"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"success": status < 300}
	if data != nil {
		body["data"] = data
	}
	if code != "" {
		body["code"] = code
	}
	if msg != "" {
		body["error"] = msg
	}
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *backend.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := &backend.MemoryStore{}
	return New(Config{BaseURL: srv.URL, AnonKey: "anon", Tokens: store}), store
}

func testSession(access, refresh string) domain.Session {
	return domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second),
		User:         domain.User{ID: "u1", Email: "buyer@example.com"},
	}
}

func TestSignInStoresSessionAndEmits(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "/api/v1/auth/signin", r.URL.Path)
		writeEnvelope(w, http.StatusOK, testSession("a1", "r1"), "", "")
	})
	b := c.Backend()

	var events []backend.Event
	unsubscribe := b.Auth.OnAuthStateChange(func(e backend.Event, s *domain.Session) {
		events = append(events, e)
	})
	defer unsubscribe()

	session, err := b.Auth.SignIn(context.Background(), "buyer@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, []backend.Event{backend.EventSignedIn}, events)

	stored, _ := store.Load()
	require.NotNil(t, stored)
	assert.Equal(t, "r1", stored.RefreshToken)
}

func TestSignInInvalidCredentials(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "invalid_credentials", "Invalid email or password")
	})

	_, err := c.Backend().Auth.SignIn(context.Background(), "buyer@example.com", "wrong")
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)

	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, backend.ErrNotFound},
		{http.StatusConflict, backend.ErrConflict},
		{http.StatusForbidden, backend.ErrForbidden},
		{http.StatusBadRequest, backend.ErrBadRequest},
		{http.StatusServiceUnavailable, backend.ErrTransient},
		{http.StatusTooManyRequests, backend.ErrTransient},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, nil, "", "nope")
			})
			_, err := c.Backend().Listings.Get(context.Background(), "l1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, AnonKey: "anon"})
	_, err := c.Backend().Listings.List(context.Background(), domain.ListingFilter{})
	assert.True(t, backend.IsTransient(err))
}

func TestExpiredAccessTokenIsRefreshedOnce(t *testing.T) {
	var refreshes int32
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			atomic.AddInt32(&refreshes, 1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "r1", body["refresh_token"])
			writeEnvelope(w, http.StatusOK, testSession("a2", "r2"), "", "")
		case "/api/v1/cart":
			if r.Header.Get("Authorization") != "Bearer a2" {
				writeEnvelope(w, http.StatusUnauthorized, nil, "unauthorized", "expired")
				return
			}
			writeEnvelope(w, http.StatusOK, []domain.CartEntry{{ID: 1, UserID: "u1", ListingID: "l1"}}, "", "")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	s := testSession("a1", "r1")
	require.NoError(t, store.Save(&s))

	var events []backend.Event
	b := c.Backend()
	b.Auth.OnAuthStateChange(func(e backend.Event, _ *domain.Session) { events = append(events, e) })

	entries, err := b.Cart.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "l1", entries[0].ListingID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, []backend.Event{backend.EventTokenRefreshed}, events)

	stored, _ := store.Load()
	assert.Equal(t, "a2", stored.AccessToken)
}

func TestGetSessionWithoutStoredTokens(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})
	session, err := c.Backend().Auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestGetSessionRejectedClearsStore(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "unauthorized", "revoked")
	})
	s := testSession("a1", "r1")
	require.NoError(t, store.Save(&s))

	session, err := c.Backend().Auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestSignOutClearsLocallyEvenWhenServerFails(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, nil, "", "down")
	})
	s := testSession("a1", "r1")
	require.NoError(t, store.Save(&s))

	var events []backend.Event
	b := c.Backend()
	b.Auth.OnAuthStateChange(func(e backend.Event, _ *domain.Session) { events = append(events, e) })

	err := b.Auth.SignOut(context.Background())
	assert.True(t, backend.IsTransient(err))
	assert.Equal(t, []backend.Event{backend.EventSignedOut}, events)

	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestListingFilterQuery(t *testing.T) {
	min := 1000.0
	popular := true
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "rent", q.Get("category"))
		assert.Equal(t, "1000", q.Get("min_price"))
		assert.Equal(t, "true", q.Get("popular"))
		assert.Empty(t, q.Get("max_price"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"listings": []domain.Listing{{ID: "l1", Category: domain.CategoryRent}},
		}, "", "")
	})

	listings, err := c.Backend().Listings.List(context.Background(), domain.ListingFilter{
		Category: domain.CategoryRent,
		MinPrice: &min,
		Popular:  &popular,
	})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "l1", listings[0].ID)
}

func TestGetManyEmptySkipsRequest(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	listings, err := c.Backend().Listings.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestForbiddenCarriesData(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, map[string]string{"role": "standard"}, "access_denied", "Access denied")
	})
	s := testSession("a1", "r1")
	require.NoError(t, store.Save(&s))

	err := c.Backend().Listings.Delete(context.Background(), "l1")
	require.ErrorIs(t, err, backend.ErrForbidden)

	var apiErr *backend.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "access_denied", apiErr.Code)
	assert.Equal(t, "standard", apiErr.Data["role"])
}
