package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	credservice "certledger/internal/credential/service"
	credstore "certledger/internal/credential/store"
	issuerservice "certledger/internal/issuer/service"
	issuerstore "certledger/internal/issuer/store"
	"certledger/internal/ledger"
	ledgerstore "certledger/internal/ledger/store"
	"certledger/internal/platform/config"
	"certledger/internal/platform/database"
	"certledger/internal/platform/health"
	"certledger/internal/platform/logger"
	"certledger/internal/platform/metrics"
	"certledger/internal/platform/tracing"
	"certledger/internal/token"
	httptransport "certledger/internal/transport/http"
	"certledger/migrations"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing certledger",
		"addr", cfg.Addr,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.FlushInterval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	var (
		chainStore  ledger.Store
		credsStore  credstore.Store
		issuerStore issuerstore.Store
		txRunner    credservice.TxRunner
	)
	if pool != nil {
		defer pool.Close()
		if err := migrations.Apply(ctx, pool.DB()); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		chainStore = ledgerstore.NewPostgres(pool.DB())
		credsStore = credstore.NewPostgres(pool.DB())
		issuerStore = issuerstore.NewPostgres(pool.DB())
		txRunner = newIssuancePostgresTx(pool.DB())
		log.Info("postgres storage configured")
	} else {
		memChain := ledgerstore.NewInMemoryStore()
		memCreds := credstore.NewInMemoryStore()
		chainStore = memChain
		credsStore = memCreds
		issuerStore = issuerstore.NewInMemoryStore()
		txRunner = credservice.NewMemoryTxRunner(memChain, memCreds)
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	m := metrics.New()
	tracer := tracing.NewOTel()
	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)

	chain := ledger.New(chainStore, ledger.WithLogger(log))
	issuers := issuerservice.New(issuerStore, tokens, issuerservice.WithLogger(log))
	credentials := credservice.New(chain, chainStore, credsStore, issuers, txRunner,
		credservice.WithLogger(log),
		credservice.WithMetrics(m),
		credservice.WithTracer(tracer),
		credservice.WithBatchSize(cfg.BatchSize),
	)

	// Create the genesis block up front so the first issuance never races an
	// empty chain.
	if err := txRunner.RunInTx(ctx, func(ctx context.Context, uow credservice.UnitOfWork) error {
		_, err := chain.InitializeGenesis(ctx, uow.Ledger())
		return err
	}); err != nil {
		log.Error("genesis initialization failed", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New(os.Getenv("ENVIRONMENT"))
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(checkCtx)
		})
	}

	handler := httptransport.NewHandler(issuers, credentials, log)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Validator: tokens,
		Health:    healthHandler,
		Metrics:   m,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Time-based batch flush so a quiet period never strands pending
	// commitments.
	if cfg.BatchSize > 1 && cfg.FlushInterval > 0 {
		group.Go(func() error {
			ticker := time.NewTicker(cfg.FlushInterval)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					if block, count, err := credentials.FlushPending(groupCtx); err != nil {
						log.Error("batch flush failed", "error", err)
					} else if count > 0 {
						log.Info("batch flushed", "count", count, "block_index", block.Index)
					}
				}
			}
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		// Anchor whatever the batch queue still holds before exit.
		if _, count, err := credentials.FlushPending(shutdownCtx); err != nil {
			log.Error("final batch flush failed", "error", err)
		} else if count > 0 {
			log.Info("final batch flushed", "count", count)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
