package tokeninfo

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestExpiresAt(t *testing.T) {
	expiry := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token := signedToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiry),
	})

	got, ok := ExpiresAt(token)
	require.True(t, ok)
	assert.True(t, got.Equal(expiry), "expected %v, got %v", expiry, got)
}

func TestExpiresAt_NoExpiryClaim(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{Subject: "user-1"})

	_, ok := ExpiresAt(token)
	assert.False(t, ok)
}

func TestExpiresAt_OpaqueToken(t *testing.T) {
	// Tokens that are not JWTs must be tolerated quietly.
	for _, token := range []string{"", "opaque-session-token", "a.b", "?.?.?"} {
		_, ok := ExpiresAt(token)
		assert.False(t, ok, "token %q must not yield an expiry", token)
	}
}
