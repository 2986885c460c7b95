package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	TokenTTL      time.Duration

	// BatchSize is the number of pending commitments that triggers a block
	// append. 1 keeps the original one-certificate-per-block behaviour.
	BatchSize int
	// FlushInterval bounds how long a pending commitment can wait for a
	// block when traffic is too low to fill a batch. Zero disables the
	// time-based flush.
	FlushInterval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CERTLEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	tokenTTL := 15 * time.Minute
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil {
			tokenTTL = duration
		}
	}

	batchSize := 1
	if raw := os.Getenv("BATCH_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			batchSize = n
		}
	}

	var flushInterval time.Duration
	if raw := os.Getenv("BATCH_FLUSH_INTERVAL"); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil {
			flushInterval = duration
		}
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
	}
}
