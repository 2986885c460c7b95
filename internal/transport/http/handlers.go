// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	credmodels "certledger/internal/credential/models"
	credservice "certledger/internal/credential/service"
	issuermodels "certledger/internal/issuer/models"
	issuerservice "certledger/internal/issuer/service"
	"certledger/internal/platform/middleware"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	issuers     *issuerservice.Service
	credentials *credservice.Service
	logger      *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(issuers *issuerservice.Service, credentials *credservice.Service, logger *slog.Logger) *Handler {
	return &Handler{
		issuers:     issuers,
		credentials: credentials,
		logger:      logger,
	}
}

func (h *Handler) handleIssuerRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[issuermodels.RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.issuers.Register(r.Context(), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleIssuerLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[issuermodels.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.issuers.Login(r.Context(), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[credmodels.IssueRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.credentials.Issue(r.Context(), middleware.GetIssuerID(r.Context()), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Pending {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, result)
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[revokeRequest](w, r, h.logger)
	if !ok {
		return
	}
	cred, err := h.credentials.Revoke(
		r.Context(),
		middleware.GetIssuerID(r.Context()),
		chi.URLParam(r, "certificateID"),
		req.Reason,
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cred)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	result, err := h.credentials.Verify(r.Context(), chi.URLParam(r, "certificateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.Credential(r.Context(), chi.URLParam(r, "certificateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cred)
}

// handleListCredentials lists by subject_id or issuer_id, exactly one of
// which must be supplied.
func (h *Handler) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject_id")
	issuerID := r.URL.Query().Get("issuer_id")

	var (
		creds []credmodels.Credential
		err   error
	)
	switch {
	case subjectID != "" && issuerID == "":
		creds, err = h.credentials.BySubject(r.Context(), subjectID)
	case issuerID != "" && subjectID == "":
		creds, err = h.credentials.ByIssuer(r.Context(), issuerID)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"exactly one of subject_id or issuer_id is required"))
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"credentials": creds,
		"count":       len(creds),
	})
}

func (h *Handler) handleChainInfo(w http.ResponseWriter, r *http.Request) {
	status, err := h.credentials.Status(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleChainValidate(w http.ResponseWriter, r *http.Request) {
	report, err := h.credentials.ValidateChain(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
