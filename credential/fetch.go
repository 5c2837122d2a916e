// Package credential maintains a short-lived session token for the Finam
// Trade API. A Cache holds the current token, refreshing it in the
// background for as long as the owning client lives, and the interceptors
// attach it to outgoing gRPC calls.
package credential

import (
	"context"
	"errors"
	"fmt"
)

// Exchanger swaps a long-lived API secret for a short-lived session token.
// Implementations should honour ctx cancellation and classify their
// failures as *TransportError or *RejectedError; anything else is treated
// as a transport failure.
type Exchanger interface {
	Exchange(ctx context.Context, secret string) (string, error)
}

// ErrEmptyToken reports an exchange that succeeded but produced no token.
var ErrEmptyToken = errors.New("exchange returned an empty token")

// TransportError reports an exchange that never received a verdict from
// the remote: connection failures, timeouts, gateway errors. The secret
// may well be valid.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("token exchange transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError reports an exchange the remote received and turned down,
// typically because the secret is invalid or revoked.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("token exchange rejected: %v", e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Fetch performs a single token exchange. The returned error is always a
// *TransportError or a *RejectedError: errors the exchanger did not
// classify are wrapped as transport failures, and an exchange that
// returns no token is a rejection.
func Fetch(ctx context.Context, x Exchanger, secret string) (string, error) {
	token, err := x.Exchange(ctx, secret)
	if err != nil {
		var transport *TransportError
		var rejected *RejectedError
		if errors.As(err, &transport) || errors.As(err, &rejected) {
			return "", err
		}
		return "", &TransportError{Err: err}
	}

	if token == "" {
		return "", &RejectedError{Err: ErrEmptyToken}
	}

	return token, nil
}
