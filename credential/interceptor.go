package credential

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// authorizationKey is the outgoing metadata key carrying the session
// token. The raw token is the value; the API expects no "Bearer " prefix.
const authorizationKey = "authorization"

// ErrMalformedToken reports a token that cannot be carried as a gRPC
// metadata value and so cannot be attached to a request.
var ErrMalformedToken = errors.New("session token contains characters illegal in metadata")

// TokenReader supplies the current session token. *Cache implements it.
type TokenReader interface {
	Token() (string, error)
}

// UnaryInterceptor authorizes outgoing unary calls with the current
// session token. When no valid token can be attached the call fails
// before anything is sent.
func UnaryInterceptor(r TokenReader) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, err := authorize(ctx, r)
		if err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamInterceptor authorizes outgoing streams with the current session
// token, under the same rules as UnaryInterceptor.
func StreamInterceptor(r TokenReader) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		ctx, err := authorize(ctx, r)
		if err != nil {
			return nil, err
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}

// authorize returns ctx with the session token appended to the outgoing
// metadata. The token is read once per call: a refresh landing mid-flight
// affects only subsequent calls.
func authorize(ctx context.Context, r TokenReader) (context.Context, error) {
	token, err := r.Token()
	if err != nil {
		return nil, fmt.Errorf("authorizing call: %w", err)
	}
	if !validMetadataValue(token) {
		return nil, ErrMalformedToken
	}
	return metadata.AppendToOutgoingContext(ctx, authorizationKey, token), nil
}

// validMetadataValue reports whether s is legal as a non-binary gRPC
// metadata value: printable ASCII, space through tilde.
func validMetadataValue(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
