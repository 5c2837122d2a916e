package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/finamgo/finam-trade-go/internal/tokeninfo"
)

// refreshLoop replaces the cached token every interval until ctx is
// cancelled. A failed refresh is retried every delay for as long as it
// takes; the loop never gives up on its own. Cancellation is honoured
// during both waits and between retry attempts.
func (c *Cache) refreshLoop(ctx context.Context, x Exchanger, secret string, interval, delay time.Duration) {
	defer close(c.done)
	defer func() {
		log.Ctx(ctx).Info().Msg("token refresh loop stopped")
	}()

	for {
		select {
		case <-time.After(interval):
			// continue
		case <-ctx.Done():
			return
		}
		if ctx.Err() != nil {
			// Cancelled while the timer fired; do not start an exchange.
			return
		}

		token, err := c.refresh(ctx, x, secret, delay)
		if err != nil {
			// A retry run only ends in error when ctx is cancelled.
			return
		}
		c.replace(token)
	}
}

// refresh performs one refresh run with tracing: an exchange, retried on a
// constant delay until it succeeds or ctx is cancelled. A panic from the
// Exchanger is recovered and counts as a failed attempt.
func (c *Cache) refresh(ctx context.Context, x Exchanger, secret string, delay time.Duration) (string, error) {
	tracer := otel.Tracer("github.com/finamgo/finam-trade-go/credential")
	ctx, span := tracer.Start(ctx, "refresh_session_token")
	defer span.End()

	attempt := func() (token string, err error) {
		defer func() {
			if r := recover(); r != nil {
				recordRefresh(ctx, "failure")
				err = fmt.Errorf("panic during token exchange: %v", r)
				log.Ctx(ctx).Warn().Interface("panic", r).Msg("token exchange panicked, recovered")
			}
		}()

		token, err = Fetch(ctx, x, secret)
		if err != nil {
			recordRefresh(ctx, "failure")
			return "", err
		}
		recordRefresh(ctx, "success")
		return token, nil
	}

	notify := func(err error, next time.Duration) {
		span.RecordError(err)
		log.Ctx(ctx).Warn().Err(err).Dur("retry_in", next).Msg("token refresh failed, retrying")
	}

	token, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithNotify(notify),
		// No deadline on a run: the API stays usable on the stale token
		// while the gateway is down, however long that lasts.
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		span.SetStatus(codes.Error, "token refresh abandoned")
		return "", err
	}

	span.SetStatus(codes.Ok, "token refreshed")
	if expiry, ok := tokeninfo.ExpiresAt(token); ok {
		log.Ctx(ctx).Debug().Time("expires_at", expiry).Msg("session token refreshed")
	}
	return token, nil
}
