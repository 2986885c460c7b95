package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"certledger/internal/token"
)

// TokenValidator validates issuer session tokens. *token.Service satisfies it.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

type contextKeyIssuerID struct{}

// ContextKeyIssuerID is exported for use in handlers.
var ContextKeyIssuerID = contextKeyIssuerID{}

// GetIssuerID retrieves the authenticated issuer id from the context.
func GetIssuerID(ctx context.Context) string {
	issuerID, ok := ctx.Value(ContextKeyIssuerID).(string)
	if !ok {
		return ""
	}
	return issuerID
}

// RequireIssuer rejects requests without a valid Bearer session token and
// stores the authenticated issuer id in the request context.
func RequireIssuer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyIssuerID, claims.IssuerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
