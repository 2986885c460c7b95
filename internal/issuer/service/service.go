// Package service manages issuer accounts: registration provisions the
// account and its signing keypair together, login hands out session tokens.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"certledger/internal/issuer/models"
	"certledger/internal/issuer/store"
	"certledger/internal/sentinel"
	"certledger/internal/signer"
	"certledger/internal/token"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/secrets"
)

// Option configures the issuer service.
type Option func(*Service)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service registers and authenticates issuers.
type Service struct {
	store  store.Store
	tokens *token.Service
	logger *slog.Logger
}

// New creates an issuer service.
func New(st store.Store, tokens *token.Service, opts ...Option) *Service {
	svc := &Service{store: st, tokens: tokens}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates an issuer account and provisions its ECDSA keypair.
// The keypair is created exactly once; there is no rotation path.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	issuer := models.Issuer{
		IssuerID:     req.IssuerID,
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
	if err := s.store.SaveIssuer(ctx, issuer); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "issuer id or username already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "save issuer")
	}

	keys, err := signer.GenerateKeyPair()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate issuer keypair")
	}
	key := models.KeyRecord{
		KeyID:      uuid.NewString(),
		IssuerID:   issuer.IssuerID,
		PrivateKey: keys.PrivateKey,
		PublicKey:  keys.PublicKey,
	}
	if err := s.store.SaveKey(ctx, key); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "save issuer key")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "issuer registered",
			"issuer_id", issuer.IssuerID,
			"key_id", key.KeyID,
		)
	}
	return &models.RegisterResult{
		Issuer:    issuer,
		KeyID:     key.KeyID,
		PublicKey: key.PublicKey,
	}, nil
}

// Login checks credentials and returns a session token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	issuer, err := s.store.IssuerByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "find issuer")
	}
	if secrets.Verify(req.Password, issuer.PasswordHash) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	tok, err := s.tokens.Generate(issuer.IssuerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate session token")
	}
	return &models.LoginResult{
		Token:     tok,
		IssuerID:  issuer.IssuerID,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Issuer returns an issuer account by id.
func (s *Service) Issuer(ctx context.Context, issuerID string) (models.Issuer, error) {
	issuer, err := s.store.IssuerByID(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Issuer{}, dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return models.Issuer{}, dErrors.Wrap(err, dErrors.CodeStorage, "find issuer")
	}
	return issuer, nil
}

// Key returns an issuer's signing keypair.
func (s *Service) Key(ctx context.Context, issuerID string) (models.KeyRecord, error) {
	key, err := s.store.KeyByIssuerID(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.KeyRecord{}, dErrors.New(dErrors.CodeNotFound, "issuer has no provisioned keypair")
		}
		return models.KeyRecord{}, dErrors.Wrap(err, dErrors.CodeStorage, "find issuer key")
	}
	return key, nil
}
