// Package testhelpers provides shared fixtures for tests across the
// module.
package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// MockGatewayServer is a configurable stand-in for the Finam REST session
// gateway, covering the token exchange and token details endpoints.
type MockGatewayServer struct {
	Server *httptest.Server

	Token      string // token returned from the exchange endpoint
	StatusCode int    // HTTP status code to return (200 if not set)
	Message    string // error body sent along with a non-200 status

	CreatedAt  time.Time // details: token creation time
	ExpiresAt  time.Time // details: token expiry time
	AccountIDs []string  // details: accounts the token grants access to
	Readonly   bool      // details: whether the token is read-only

	ExchangeCount int    // exchange requests received
	DetailsCount  int    // details requests received
	LastSecret    string // secret carried by the last exchange request
	LastToken     string // token carried by the last details request
}

// SetupMockGatewayServer creates a mock session gateway with sensible
// defaults and request tracking.
func SetupMockGatewayServer(t *testing.T) *MockGatewayServer {
	t.Helper()

	mock := &MockGatewayServer{
		Token:      "test-session-token",
		StatusCode: http.StatusOK,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		ExpiresAt:  time.Now().UTC().Truncate(time.Second).Add(15 * time.Minute),
		AccountIDs: []string{"TRQD-01"},
	}

	router := http.NewServeMux()

	router.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		mock.ExchangeCount++

		var req struct {
			Secret string `json:"secret"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		mock.LastSecret = req.Secret

		if mock.StatusCode != http.StatusOK {
			mock.writeError(w)
			return
		}

		WriteJSON(w, struct {
			Token string `json:"token"`
		}{Token: mock.Token})
	})

	router.HandleFunc("POST /v1/sessions/details", func(w http.ResponseWriter, r *http.Request) {
		mock.DetailsCount++

		var req struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		mock.LastToken = req.Token

		if mock.StatusCode != http.StatusOK {
			mock.writeError(w)
			return
		}

		WriteJSON(w, struct {
			CreatedAt  time.Time `json:"created_at"`
			ExpiresAt  time.Time `json:"expires_at"`
			AccountIDs []string  `json:"account_ids"`
			Readonly   bool      `json:"readonly"`
		}{
			CreatedAt:  mock.CreatedAt,
			ExpiresAt:  mock.ExpiresAt,
			AccountIDs: mock.AccountIDs,
			Readonly:   mock.Readonly,
		})
	})

	mock.Server = httptest.NewServer(router)
	return mock
}

func (m *MockGatewayServer) writeError(w http.ResponseWriter) {
	w.WriteHeader(m.StatusCode)
	if m.Message != "" {
		WriteJSON(w, struct {
			Message string `json:"message"`
		}{Message: m.Message})
	}
}

// Close shuts down the mock server.
func (m *MockGatewayServer) Close() {
	m.Server.Close()
}

// WriteJSON is a helper function that writes a JSON response.
// It sets the Content-Type header and marshals the payload to JSON.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		// In test context, this should never happen with valid test data
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
