// Package tokeninfo peeks inside JWT session tokens without verifying
// them. The client treats tokens as opaque credentials; the payload is
// only ever used for operational logging.
package tokeninfo

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var parser = jwt.NewParser()

// ExpiresAt returns the expiry claim of a JWT without checking its
// signature. ok is false when the token is not a JWT or has no expiry.
func ExpiresAt(token string) (expiry time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
