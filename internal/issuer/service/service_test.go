package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certledger/internal/issuer/models"
	"certledger/internal/issuer/store"
	"certledger/internal/signer"
	"certledger/internal/token"
	dErrors "certledger/pkg/domain-errors"
)

type IssuerServiceSuite struct {
	suite.Suite
	svc    *Service
	tokens *token.Service
}

func (s *IssuerServiceSuite) SetupTest() {
	s.tokens = token.NewService("test-signing-key", time.Hour)
	s.svc = New(store.NewInMemoryStore(), s.tokens)
}

func (s *IssuerServiceSuite) register(issuerID, username string) *models.RegisterResult {
	res, err := s.svc.Register(context.Background(), models.RegisterRequest{
		IssuerID: issuerID,
		Name:     "Test University",
		Username: username,
		Password: "correct horse",
	})
	s.Require().NoError(err)
	return res
}

func (s *IssuerServiceSuite) TestRegisterProvisionsKeypair() {
	res := s.register("uni-001", "registrar")

	s.Equal("uni-001", res.Issuer.IssuerID)
	s.NotEmpty(res.KeyID)
	s.NotEmpty(res.PublicKey)
	s.NotEqual("correct horse", res.Issuer.PasswordHash, "password must not be stored in clear")

	key, err := s.svc.Key(context.Background(), "uni-001")
	s.Require().NoError(err)
	s.Equal(res.KeyID, key.KeyID)
	s.NotEmpty(key.PrivateKey)

	// The provisioned keypair must actually sign and verify.
	payload := signer.Payload{CertificateID: "CERT1", SubjectID: "STU001", ClaimName: "degree", ClaimValue: "BSc", IssuerID: "uni-001", IssueDate: "2026-08-29", Timestamp: 1}
	sig, err := signer.Sign(key.PrivateKey, payload)
	s.Require().NoError(err)
	s.True(signer.Verify(key.PublicKey, payload, sig))
}

func (s *IssuerServiceSuite) TestRegisterRejectsDuplicates() {
	s.register("uni-001", "registrar")

	_, err := s.svc.Register(context.Background(), models.RegisterRequest{
		IssuerID: "uni-001",
		Name:     "Other",
		Username: "other",
		Password: "longenough",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *IssuerServiceSuite) TestRegisterValidation() {
	_, err := s.svc.Register(context.Background(), models.RegisterRequest{
		IssuerID: "uni-001",
		Name:     "Test University",
		Username: "registrar",
		Password: "short",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *IssuerServiceSuite) TestLoginIssuesValidToken() {
	s.register("uni-001", "registrar")

	res, err := s.svc.Login(context.Background(), models.LoginRequest{Username: "registrar", Password: "correct horse"})
	s.Require().NoError(err)
	s.Equal("uni-001", res.IssuerID)
	s.Equal(int64(3600), res.ExpiresIn)

	claims, err := s.tokens.Validate(res.Token)
	s.Require().NoError(err)
	s.Equal("uni-001", claims.IssuerID)
}

func (s *IssuerServiceSuite) TestLoginWrongPassword() {
	s.register("uni-001", "registrar")

	_, err := s.svc.Login(context.Background(), models.LoginRequest{Username: "registrar", Password: "wrong password"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *IssuerServiceSuite) TestLoginUnknownUsernameSameError() {
	_, err := s.svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "whatever123"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestIssuerServiceSuite(t *testing.T) {
	suite.Run(t, new(IssuerServiceSuite))
}
