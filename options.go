package finam

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/finamgo/finam-trade-go/credential"
	"github.com/finamgo/finam-trade-go/session"
)

// DefaultAddress is the public Finam Trade API gRPC endpoint.
const DefaultAddress = "api.finam.ru:443"

type options struct {
	address         string
	sessionURL      string
	httpClient      *http.Client
	exchanger       credential.Exchanger
	refreshInterval time.Duration
	retryDelay      time.Duration
	transportCreds  credentials.TransportCredentials
	dialOptions     []grpc.DialOption
	logger          *zerolog.Logger
}

func defaultOptions() options {
	return options{
		address:    DefaultAddress,
		sessionURL: session.DefaultBaseURL,
		transportCreds: credentials.NewTLS(&tls.Config{
			MinVersion: tls.VersionTLS12,
		}),
	}
}

// Option configures Dial.
type Option func(*options)

// WithAddress points the client at a different gRPC endpoint, host:port.
func WithAddress(address string) Option {
	return func(o *options) { o.address = address }
}

// WithSessionEndpoint points the token exchange at a different REST
// gateway base URL.
func WithSessionEndpoint(baseURL string) Option {
	return func(o *options) { o.sessionURL = baseURL }
}

// WithHTTPClient supplies the HTTP client used for gateway requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.httpClient = httpClient }
}

// WithRefreshInterval overrides how often the session token is renewed.
func WithRefreshInterval(d time.Duration) Option {
	return func(o *options) { o.refreshInterval = d }
}

// WithRetryDelay overrides the pause between failed renewal attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.retryDelay = d }
}

// WithExchanger replaces the gateway token exchange with a custom
// implementation. Meant for tests and for deployments that source session
// tokens elsewhere.
func WithExchanger(x credential.Exchanger) Option {
	return func(o *options) { o.exchanger = x }
}

// WithTransportCredentials overrides the channel security. The default is
// TLS 1.2 or better against the host's root certificate pool.
func WithTransportCredentials(tc credentials.TransportCredentials) Option {
	return func(o *options) { o.transportCreds = tc }
}

// WithDialOptions appends further gRPC dial options to the defaults.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

// WithLogger routes the client's logging through the given logger. Without
// it the client logs through zerolog's context default, which is silent
// unless the application configures one.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}
