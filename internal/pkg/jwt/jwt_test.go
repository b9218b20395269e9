package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	iss := NewIssuer("secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	token, expiresAt, err := iss.GenerateAccessToken("u-1", "ann@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := iss.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
}

func TestAccessTokenExpired(t *testing.T) {
	iss := NewIssuer("secret", "refresh-secret", time.Minute, time.Hour)
	past := time.Now().Add(-2 * time.Hour)
	iss.now = func() time.Time { return past }

	token, _, err := iss.GenerateAccessToken("u-1", "ann@example.com")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	iss := NewIssuer("secret", "refresh-secret", time.Minute, time.Hour)

	refresh, _, err := iss.GenerateRefreshToken("u-1", "tok-1")
	require.NoError(t, err)

	_, err = iss.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	claims, err := iss.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", claims.TokenID)
}

func TestTokenSignedWithOtherSecret(t *testing.T) {
	a := NewIssuer("secret-a", "refresh-a", time.Minute, time.Hour)
	b := NewIssuer("secret-b", "refresh-b", time.Minute, time.Hour)

	token, _, err := a.GenerateAccessToken("u-1", "ann@example.com")
	require.NoError(t, err)

	_, err = b.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
