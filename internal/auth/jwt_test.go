package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "visela-test-secret-at-least-32-chars"

// newTestJWTService returns a service whose clock can be moved with the
// returned function.
func newTestJWTService() (*JWTService, func(time.Duration)) {
	s := NewJWTService(testSecret, 15*time.Minute, 7*24*time.Hour)
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, func(d time.Duration) { now = now.Add(d) }
}

// ============================================
// Access tokens
// ============================================

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	s, _ := newTestJWTService()

	token, expiresAt, err := s.GenerateAccessToken("user-1", "771234567", RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, s.now().Add(15*time.Minute), expiresAt)

	claims, err := s.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "771234567", claims.ClientID)
	assert.Equal(t, RoleCustomer, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
	assert.False(t, claims.Debug)
}

func TestJWTService_AccessTokenExpires(t *testing.T) {
	s, advance := newTestJWTService()

	token, _, err := s.GenerateAccessToken("user-1", "771234567", RoleCustomer)
	require.NoError(t, err)

	advance(14 * time.Minute)
	_, err = s.ValidateAccessToken(token)
	require.NoError(t, err)

	advance(2 * time.Minute)
	claims, err := s.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTService_RejectsBadAccessTokens(t *testing.T) {
	s, _ := newTestJWTService()
	other := NewJWTService("another-secret-that-is-32-chars-long", time.Minute, time.Hour)

	foreign, _, err := other.GenerateAccessToken("user-1", "771234567", RoleAdmin)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-1", ClientID: "771234567", Role: RoleAdmin, Type: tokenAccess,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	refresh, _, err := s.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	tests := map[string]string{
		"empty":           "",
		"garbage":         "not-a-token",
		"malformed":       "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
		"other secret":    foreign,
		"alg none":        unsigned,
		"refresh as auth": refresh,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := s.ValidateAccessToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_DebugToken(t *testing.T) {
	s, advance := newTestJWTService()

	token, expiresAt, err := s.GenerateDebugToken(5 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, s.now().Add(5*time.Minute), expiresAt)

	claims, err := s.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.True(t, claims.Debug)

	advance(6 * time.Minute)
	_, err = s.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

// ============================================
// Refresh tokens
// ============================================

func TestJWTService_RefreshTokenRoundTrip(t *testing.T) {
	s, _ := newTestJWTService()

	token, expiresAt, err := s.GenerateRefreshToken("user-9")
	require.NoError(t, err)
	assert.Equal(t, s.now().Add(7*24*time.Hour), expiresAt)

	userID, err := s.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", userID)
}

func TestJWTService_RefreshTokensAreUnique(t *testing.T) {
	s, _ := newTestJWTService()

	// Same user, same instant.
	first, _, err := s.GenerateRefreshToken("user-9")
	require.NoError(t, err)
	second, _, err := s.GenerateRefreshToken("user-9")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTService_RejectsBadRefreshTokens(t *testing.T) {
	s, advance := newTestJWTService()

	access, _, err := s.GenerateAccessToken("user-9", "771234567", RoleCustomer)
	require.NoError(t, err)
	_, err = s.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateRefreshToken("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh, _, err := s.GenerateRefreshToken("user-9")
	require.NoError(t, err)
	advance(8 * 24 * time.Hour)
	userID, err := s.ValidateRefreshToken(refresh)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Empty(t, userID)
}

func TestJWTService_Expiry(t *testing.T) {
	s := NewJWTService(testSecret, 30*time.Minute, 14*24*time.Hour)

	assert.Equal(t, 30*time.Minute, s.AccessExpiry())
	assert.Equal(t, 14*24*time.Hour, s.RefreshExpiry())
}
