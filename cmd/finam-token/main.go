// This command is a local utility: it exchanges the API secret from the
// environment for a session token and prints it, for use with grpcurl and
// other ad-hoc tooling against the trade API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/finamgo/finam-trade-go/credential"
	"github.com/finamgo/finam-trade-go/session"
)

type Config struct {
	Secret     string        `env:"FINAM_API_SECRET, required"`
	GatewayURL string        `env:"FINAM_SESSION_URL, default=https://api.finam.ru"`
	Timeout    time.Duration `env:"FINAM_API_TIMEOUT, default=30s"`
	Details    bool          `env:"FINAM_TOKEN_DETAILS, default=false"`
}

func main() {
	cfg := Config{}
	err := envconfig.Process(context.Background(), &cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	gateway := session.New(cfg.GatewayURL, nil)

	// Fetch rather than a bare Exchange: a 200 with an empty token is a
	// rejection, not a blank line on stdout.
	token, err := credential.Fetch(ctx, gateway, cfg.Secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating session: %v\n", err)
		os.Exit(1)
	}

	if cfg.Details {
		details, err := gateway.Details(ctx, token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error fetching token details: %v\n", err)
			os.Exit(1)
		}

		out, err := json.MarshalIndent(details, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error encoding details: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s\n", out)
		return
	}

	// No trailing newline: the output is substituted into other commands.
	fmt.Printf("%s", token)
}
