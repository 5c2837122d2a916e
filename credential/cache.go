package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultRefreshInterval is the pause between successful token
	// refreshes. Session tokens live for fifteen minutes; renewing every
	// ten keeps a comfortable margin.
	DefaultRefreshInterval = 10 * time.Minute

	// DefaultRetryDelay is the pause before retrying a failed refresh.
	DefaultRetryDelay = 5 * time.Second
)

// ErrTokenUnavailable reports a read from a cache that holds no token.
// A cache built by New always holds one; only a zero-value Cache can
// return this.
var ErrTokenUnavailable = errors.New("no session token available")

// Config carries the collaborators and tuning for a Cache.
type Config struct {
	// Secret is the long-lived API secret exchanged for session tokens.
	// It is held for the lifetime of the cache and never logged.
	Secret string

	// Exchanger performs the token exchange.
	Exchanger Exchanger

	// RefreshInterval overrides DefaultRefreshInterval when positive.
	RefreshInterval time.Duration

	// RetryDelay overrides DefaultRetryDelay when positive.
	RetryDelay time.Duration
}

// Cache holds the current session token and replaces it in the background.
// A Cache is safe for concurrent use; readers are never blocked by an
// in-flight refresh. The handle may be shared freely: all copies of the
// pointer observe the same token and the same shutdown.
type Cache struct {
	mu    sync.RWMutex
	token string

	cancel context.CancelFunc
	done   chan struct{}
}

var _ TokenReader = (*Cache)(nil)

// New exchanges the secret once, synchronously, and starts the background
// refresh loop. If that first exchange fails, New returns the classified
// error and leaves nothing running. ctx bounds only the first exchange;
// the refresh loop is detached from it and runs until Close.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Secret == "" {
		return nil, errors.New("credential: secret must not be empty")
	}
	if cfg.Exchanger == nil {
		return nil, errors.New("credential: exchanger must not be nil")
	}

	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	initMetrics()

	token, err := Fetch(ctx, cfg.Exchanger, cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("initial token exchange: %w", err)
	}

	// The loop must outlive the construction context: its lifetime is
	// ended by Close, not by the caller's request deadline. Values (and
	// so the context logger) are retained.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c := &Cache{
		token:  token,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.refreshLoop(loopCtx, cfg.Exchanger, cfg.Secret, interval, delay)

	return c, nil
}

// Token returns the current session token. It does not block on refreshes:
// during an outage the last good token is served, and after Close the
// final token remains readable.
func (c *Cache) Token() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" {
		return "", ErrTokenUnavailable
	}
	return c.token, nil
}

// replace swaps the stored token. Readers see either the old token or the
// new one, never a mixture.
func (c *Cache) replace(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Close stops the refresh loop and waits for it to exit, even when it is
// mid-wait or mid-exchange. Safe to call repeatedly and from multiple
// goroutines; every call blocks until the loop is gone.
func (c *Cache) Close() {
	c.cancel()
	<-c.done
}
