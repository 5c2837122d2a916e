// Package finam is a client for the Finam Trade API. Dial authenticates
// with the caller's API secret, opens a gRPC channel to the trading
// endpoint and keeps the short-lived session token fresh in the
// background; every call through the channel carries the current token.
//
//	client, err := finam.Dial(ctx, secret)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	accounts := accountsservice.NewAccountsServiceClient(client.Conn())
//
// Generated service clients built on Conn need no further configuration:
// the channel's interceptors attach the token to unary and streaming
// calls alike.
package finam

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/finamgo/finam-trade-go/credential"
	"github.com/finamgo/finam-trade-go/session"
)

// Client owns the session token lifecycle and the gRPC channel to the
// trade API. It is safe for concurrent use.
type Client struct {
	cache *credential.Cache
	sess  *session.Client
	conn  *grpc.ClientConn
}

// Dial authenticates with the trade API and opens a channel to it.
//
// Dial performs one synchronous token exchange: when the secret is
// rejected or the gateway cannot be reached it fails outright, leaving no
// background work behind. On success a refresh loop keeps the token
// current until Close. ctx bounds only the work done by Dial itself.
func Dial(ctx context.Context, secret string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger != nil {
		ctx = o.logger.WithContext(ctx)
	}

	sess := session.New(o.sessionURL, o.httpClient)

	exchanger := o.exchanger
	if exchanger == nil {
		exchanger = sess
	}

	cache, err := credential.New(ctx, credential.Config{
		Secret:          secret,
		Exchanger:       exchanger,
		RefreshInterval: o.refreshInterval,
		RetryDelay:      o.retryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("finam: authentication failed: %w", err)
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(o.transportCreds),
		grpc.WithChainUnaryInterceptor(credential.UnaryInterceptor(cache)),
		grpc.WithChainStreamInterceptor(credential.StreamInterceptor(cache)),
	}
	dialOpts = append(dialOpts, o.dialOptions...)

	conn, err := grpc.NewClient(o.address, dialOpts...)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("finam: dialing %s: %w", o.address, err)
	}

	return &Client{cache: cache, sess: sess, conn: conn}, nil
}

// Conn exposes the authenticated channel for generated service clients.
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// Token returns the current session token.
func (c *Client) Token() (string, error) {
	return c.cache.Token()
}

// TokenDetails asks the gateway to describe the current session token.
// It always goes through the REST gateway, also when the client was
// dialled with a custom exchanger.
func (c *Client) TokenDetails(ctx context.Context) (session.TokenDetails, error) {
	token, err := c.cache.Token()
	if err != nil {
		return session.TokenDetails{}, err
	}
	return c.sess.Details(ctx, token)
}

// Close stops the token refresh loop, waits for it to exit and closes the
// gRPC channel. The client must not be used afterwards.
func (c *Client) Close() error {
	c.cache.Close()
	return c.conn.Close()
}
