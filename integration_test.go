//go:build integration

package finam_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	finam "github.com/finamgo/finam-trade-go"
)

// TestLiveSession runs against the real Finam gateway. It needs network
// access and a valid API secret:
//
//	FINAM_API_SECRET=... go test -tags integration -run TestLiveSession .
func TestLiveSession(t *testing.T) {
	secret := os.Getenv("FINAM_API_SECRET")
	if secret == "" {
		t.Skip("FINAM_API_SECRET not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := finam.Dial(ctx, secret)
	require.NoError(t, err)
	defer client.Close()

	token, err := client.Token()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	details, err := client.TokenDetails(ctx)
	require.NoError(t, err)
	assert.True(t, details.ExpiresAt.After(time.Now()), "live token must not already be expired")
	assert.NotEmpty(t, details.AccountIDs)
}
