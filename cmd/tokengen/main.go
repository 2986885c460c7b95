// Command tokengen mints issuer session tokens for local development and API
// testing. The tokens are signed with the dev signing key and will NOT work
// against a production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"certledger/internal/token"
)

// devSigningKey matches config.FromEnv when JWT_SIGNING_KEY is not set.
const devSigningKey = "dev-secret-key-change-in-production"

type tokenOutput struct {
	Token     string `json:"token"`
	IssuerID  string `json:"issuer_id"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	issuerID := flag.String("issuer-id", "", "Issuer id to embed in the token (required)")
	ttl := flag.Duration("ttl", 15*time.Minute, "Token time-to-live")
	signingKey := flag.String("signing-key", "", "Signing key; defaults to the dev key or JWT_SIGNING_KEY")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *issuerID == "" {
		fmt.Fprintln(os.Stderr, "-issuer-id is required")
		flag.Usage()
		os.Exit(2)
	}

	key := *signingKey
	if key == "" {
		key = os.Getenv("JWT_SIGNING_KEY")
	}
	if key == "" {
		key = devSigningKey
	}

	tok, err := token.NewService(key, *ttl).Generate(*issuerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out := tokenOutput{
			Token:     tok,
			IssuerID:  *issuerID,
			ExpiresIn: ttl.String(),
			Usage:     `curl -H "Authorization: Bearer <token>" ...`,
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(tok)
}
