package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certledger/internal/platform/health"
	"certledger/internal/platform/metrics"
	"certledger/internal/platform/middleware"
)

// RouterConfig carries everything the router needs beyond the handlers.
type RouterConfig struct {
	Validator middleware.TokenValidator
	Health    *health.Handler
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// NewRouter wires all endpoints with the middleware stack. Verification and
// chain inspection are public; issuance and revocation require an issuer
// session token.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Issuer account endpoints
	r.Post("/api/issuers/register", h.handleIssuerRegister)
	r.Post("/api/issuers/login", h.handleIssuerLogin)

	// Public verification surface
	r.Get("/api/credentials/{certificateID}/verify", h.handleVerify)
	r.Get("/api/chain/info", h.handleChainInfo)
	r.Get("/api/chain/validate", h.handleChainValidate)

	// Authenticated issuer surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIssuer(cfg.Validator, cfg.Logger))
		r.Post("/api/credentials", h.handleIssue)
		r.Post("/api/credentials/{certificateID}/revoke", h.handleRevoke)
		r.Get("/api/credentials/{certificateID}", h.handleGetCredential)
		r.Get("/api/credentials", h.handleListCredentials)
	})

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	return r
}
