package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	credservice "certledger/internal/credential/service"
	credstore "certledger/internal/credential/store"
	issuerservice "certledger/internal/issuer/service"
	issuerstore "certledger/internal/issuer/store"
	"certledger/internal/ledger"
	ledgerstore "certledger/internal/ledger/store"
	"certledger/internal/platform/health"
	"certledger/internal/token"
)

type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
	token  string
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tokens := token.NewService("test-signing-key", time.Hour)

	chain := ledgerstore.NewInMemoryStore()
	creds := credstore.NewInMemoryStore()
	issuers := issuerservice.New(issuerstore.NewInMemoryStore(), tokens, issuerservice.WithLogger(logger))
	credentials := credservice.New(
		ledger.New(chain),
		chain,
		creds,
		issuers,
		credservice.NewMemoryTxRunner(chain, creds),
		credservice.WithLogger(logger),
	)

	h := NewHandler(issuers, credentials, logger)
	s.server = httptest.NewServer(NewRouter(h, RouterConfig{
		Validator: tokens,
		Health:    health.New("test"),
		Logger:    logger,
	}))

	// Register and log in one issuer for the authenticated endpoints.
	resp := s.postJSON("/api/issuers/register", map[string]string{
		"issuer_id": "uni-001",
		"name":      "Test University",
		"username":  "registrar",
		"password":  "correct horse",
	}, "")
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var login struct {
		Token string `json:"token"`
	}
	resp = s.postJSON("/api/issuers/login", map[string]string{
		"username": "registrar",
		"password": "correct horse",
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &login)
	s.token = login.Token
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) postJSON(path string, body any, bearer string) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) get(path, bearer string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response, into any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

func (s *HandlerSuite) issue() string {
	resp := s.postJSON("/api/credentials", map[string]string{
		"subject_name": "Alice Example",
		"subject_id":   "STU001",
		"claim_name":   "Final Grade",
		"claim_value":  "A+",
	}, s.token)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var result struct {
		CertificateID string `json:"certificate_id"`
	}
	s.decode(resp, &result)
	s.Require().NotEmpty(result.CertificateID)
	return result.CertificateID
}

func (s *HandlerSuite) TestIssueRequiresAuth() {
	resp := s.postJSON("/api/credentials", map[string]string{
		"subject_name": "Alice Example",
		"subject_id":   "STU001",
		"claim_name":   "Final Grade",
		"claim_value":  "A+",
	}, "")
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestIssueAndVerify() {
	certID := s.issue()

	resp := s.get("/api/credentials/"+certID+"/verify", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var verify struct {
		Verified       bool   `json:"verified"`
		Valid          bool   `json:"valid"`
		Status         string `json:"status"`
		SignatureValid bool   `json:"signature_valid"`
	}
	s.decode(resp, &verify)
	s.True(verify.Verified)
	s.True(verify.Valid)
	s.True(verify.SignatureValid)
	s.Equal("active", verify.Status)
}

func (s *HandlerSuite) TestVerifyUnknownCertificate() {
	resp := s.get("/api/credentials/DOESNOTEXIST/verify", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, "verification reports, it does not error")

	var verify struct {
		Verified bool   `json:"verified"`
		Reason   string `json:"reason"`
	}
	s.decode(resp, &verify)
	s.False(verify.Verified)
	s.Equal("not_found", verify.Reason)
}

func (s *HandlerSuite) TestRevokeFlow() {
	certID := s.issue()

	resp := s.postJSON("/api/credentials/"+certID+"/revoke", map[string]string{
		"reason": "records error",
	}, s.token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var cred struct {
		Status           string `json:"status"`
		RevocationReason string `json:"revocation_reason"`
	}
	s.decode(resp, &cred)
	s.Equal("revoked", cred.Status)
	s.Equal("records error", cred.RevocationReason)

	verifyResp := s.get("/api/credentials/"+certID+"/verify", "")
	var verify struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason"`
	}
	s.decode(verifyResp, &verify)
	s.False(verify.Valid)
	s.Equal("revoked", verify.Reason)
}

func (s *HandlerSuite) TestRevokeUnknownCertificate() {
	resp := s.postJSON("/api/credentials/DOESNOTEXIST/revoke", map[string]string{
		"reason": "gone",
	}, s.token)
	defer resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerSuite) TestListCredentials() {
	s.issue()
	s.issue()

	resp := s.get("/api/credentials?subject_id=STU001", s.token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var list struct {
		Count int `json:"count"`
	}
	s.decode(resp, &list)
	s.Equal(2, list.Count)

	// Requires exactly one filter.
	resp = s.get("/api/credentials", s.token)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerSuite) TestChainEndpoints() {
	s.issue()

	resp := s.get("/api/chain/info", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var info struct {
		BlockCount int64 `json:"block_count"`
		EntryCount int64 `json:"entry_count"`
	}
	s.decode(resp, &info)
	s.Equal(int64(2), info.BlockCount)
	s.Equal(int64(1), info.EntryCount)

	resp = s.get("/api/chain/validate", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var report struct {
		Valid bool `json:"valid"`
	}
	s.decode(resp, &report)
	s.True(report.Valid)
}

func (s *HandlerSuite) TestLoginRejectsBadPassword() {
	resp := s.postJSON("/api/issuers/login", map[string]string{
		"username": "registrar",
		"password": "wrong password",
	}, "")
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestHealthEndpoints() {
	resp := s.get("/health/live", "")
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}
