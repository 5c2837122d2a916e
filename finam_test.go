package finam

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/finamgo/finam-trade-go/credential"
	"github.com/finamgo/finam-trade-go/internal/testhelpers"
)

// fixedExchanger stands in for the gateway in facade tests.
type fixedExchanger struct {
	token string
	err   error
	calls int
}

func (f *fixedExchanger) Exchange(ctx context.Context, secret string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func TestDial_WithExchanger(t *testing.T) {
	x := &fixedExchanger{token: "tok-1"}

	client, err := Dial(context.Background(), "s3cret",
		WithExchanger(x),
		WithAddress("localhost:14400"),
		WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer client.Close()

	token, err := client.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	assert.NotNil(t, client.Conn())
	assert.Equal(t, 1, x.calls)
}

func TestDial_EmptySecret(t *testing.T) {
	x := &fixedExchanger{token: "tok-1"}

	client, err := Dial(context.Background(), "", WithExchanger(x))
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Equal(t, 0, x.calls)
}

func TestDial_AuthenticationFailure(t *testing.T) {
	x := &fixedExchanger{err: &credential.RejectedError{Err: errors.New("invalid secret")}}

	client, err := Dial(context.Background(), "s3cret", WithExchanger(x))
	require.Error(t, err)
	assert.Nil(t, client)

	// The classification of the failed exchange stays visible to callers.
	var rejected *credential.RejectedError
	assert.ErrorAs(t, err, &rejected)
}

func TestDial_GatewayRoundTrip(t *testing.T) {
	mock := testhelpers.SetupMockGatewayServer(t)
	defer mock.Close()
	mock.Token = "tok-gw"

	client, err := Dial(context.Background(), "s3cret",
		WithSessionEndpoint(mock.Server.URL),
		WithHTTPClient(mock.Server.Client()),
		WithAddress("localhost:14401"),
		WithTransportCredentials(insecure.NewCredentials()),
		WithRefreshInterval(time.Hour),
	)
	require.NoError(t, err)
	defer client.Close()

	token, err := client.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-gw", token)
	assert.Equal(t, 1, mock.ExchangeCount)
	assert.Equal(t, "s3cret", mock.LastSecret)

	details, err := client.TokenDetails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mock.AccountIDs, details.AccountIDs)
	assert.Equal(t, "tok-gw", mock.LastToken)
}

func TestDial_LoggerReceivesLifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	x := &fixedExchanger{token: "tok-1"}
	client, err := Dial(context.Background(), "s3cret",
		WithExchanger(x),
		WithAddress("localhost:14402"),
		WithTransportCredentials(insecure.NewCredentials()),
		WithLogger(logger),
	)
	require.NoError(t, err)

	require.NoError(t, client.Close())

	// Close waits for the refresh loop, so its exit line is in the buffer
	// by the time Close returns.
	assert.Contains(t, buf.String(), "token refresh loop stopped")
}
