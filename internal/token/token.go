// Package token issues and validates issuer session tokens. These guard the
// issuance API only; they play no part in the cryptographic verification of
// credentials.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "certledger/pkg/domain-errors"
)

// Claims are the JWT claims carried by an issuer session token.
type Claims struct {
	IssuerID string `json:"issuer_id"`
	jwt.RegisteredClaims
}

// Service signs and validates issuer session tokens with a shared key.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

// NewService creates a token service with the given HS256 signing key and TTL.
func NewService(signingKey string, ttl time.Duration) *Service {
	return &Service{signingKey: []byte(signingKey), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Generate creates a signed session token for an issuer.
func (s *Service) Generate(issuerID string) (string, error) {
	now := time.Now()
	claims := Claims{
		IssuerID: issuerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   issuerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Validate parses and verifies a session token, returning its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.IssuerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
