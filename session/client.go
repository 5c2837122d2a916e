// Package session talks to the Finam Trade API REST gateway: it exchanges
// an API secret for a short-lived JWT session token and looks up the
// details of an issued token. Client implements credential.Exchanger, so
// it plugs directly into a credential.Cache.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finamgo/finam-trade-go/credential"
)

// DefaultBaseURL is the public Finam Trade API gateway.
const DefaultBaseURL = "https://api.finam.ru"

// defaultTimeout bounds a single gateway request when the caller supplies
// no HTTP client of their own. The refresh loop depends on every exchange
// attempt terminating.
const defaultTimeout = 30 * time.Second

// Client is a thin client for the session endpoints of the gateway. It is
// safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ credential.Exchanger = (*Client)(nil)

// New builds a gateway client. An empty baseURL selects DefaultBaseURL; a
// nil httpClient selects one with a request timeout of thirty seconds.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type authRequest struct {
	Secret string `json:"secret"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Exchange swaps the API secret for a session token.
func (c *Client) Exchange(ctx context.Context, secret string) (string, error) {
	var resp authResponse
	if err := c.post(ctx, "/v1/sessions", authRequest{Secret: secret}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// TokenDetails is the gateway's description of an issued session token.
type TokenDetails struct {
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	AccountIDs []string  `json:"account_ids"`
	Readonly   bool      `json:"readonly"`
}

type detailsRequest struct {
	Token string `json:"token"`
}

// Details asks the gateway to describe a session token: its validity
// window and the accounts it grants access to.
func (c *Client) Details(ctx context.Context, token string) (TokenDetails, error) {
	var details TokenDetails
	if err := c.post(ctx, "/v1/sessions/details", detailsRequest{Token: token}, &details); err != nil {
		return TokenDetails{}, err
	}
	return details, nil
}

// post sends one JSON request and decodes the JSON response. All failures
// are classified for the credential package: only a 4xx gateway verdict is
// a rejection, everything else leaves the outcome unknown.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &credential.TransportError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &credential.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &credential.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &credential.TransportError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func statusError(resp *http.Response) error {
	var err error

	// The gateway explains rejections in a short JSON body.
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if text := bytes.TrimSpace(msg); len(text) > 0 {
		err = fmt.Errorf("gateway returned %s: %s", resp.Status, text)
	} else {
		err = fmt.Errorf("gateway returned %s", resp.Status)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &credential.RejectedError{Err: err}
	}
	return &credential.TransportError{Err: err}
}
