package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/token"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func protected(t *testing.T, validator TokenValidator) (http.Handler, *string) {
	t.Helper()
	var seenIssuer string
	handler := RequireIssuer(validator, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenIssuer = GetIssuerID(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)
	return handler, &seenIssuer
}

func TestRequireIssuer_ValidToken(t *testing.T) {
	tokens := token.NewService("signing-key", time.Hour)
	tok, err := tokens.Generate("uni-001")
	require.NoError(t, err)

	handler, seenIssuer := protected(t, tokens)
	r := httptest.NewRequest(http.MethodPost, "/certificates", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "uni-001", *seenIssuer)
}

func TestRequireIssuer_MissingHeader(t *testing.T) {
	tokens := token.NewService("signing-key", time.Hour)
	handler, _ := protected(t, tokens)

	r := httptest.NewRequest(http.MethodPost, "/certificates", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthorized")
}

func TestRequireIssuer_GarbageToken(t *testing.T) {
	tokens := token.NewService("signing-key", time.Hour)
	handler, _ := protected(t, tokens)

	r := httptest.NewRequest(http.MethodPost, "/certificates", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireIssuer_WrongSigningKey(t *testing.T) {
	other := token.NewService("other-key", time.Hour)
	tok, err := other.Generate("uni-001")
	require.NoError(t, err)

	tokens := token.NewService("signing-key", time.Hour)
	handler, _ := protected(t, tokens)

	r := httptest.NewRequest(http.MethodPost, "/certificates", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetIssuerID_EmptyContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetIssuerID(r.Context()))
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
}

func TestRequestID_ClientSupplied(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "client-id-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "client-id-123", captured)
}
