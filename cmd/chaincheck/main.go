// Command chaincheck runs a full integrity walk over the configured ledger
// and prints the report. Exit code 1 means the chain failed validation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"certledger/internal/ledger"
	ledgerstore "certledger/internal/ledger/store"
	"certledger/internal/platform/config"
	"certledger/internal/platform/database"
	"certledger/internal/platform/logger"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(2)
	}

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(2)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	chain := ledger.New(ledgerstore.NewPostgres(pool.DB()), ledger.WithLogger(log))
	report, err := chain.ValidateChain(ctx)
	if err != nil {
		log.Error("chain validation errored", "error", err)
		os.Exit(2)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		log.Error("encode report", "error", err)
		os.Exit(2)
	}

	if !report.Valid {
		os.Exit(1)
	}
}
