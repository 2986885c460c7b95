// Package models defines issuer accounts and their signing keys.
package models

import (
	"strings"

	dErrors "certledger/pkg/domain-errors"
)

// Issuer is an institution allowed to sign credentials.
type Issuer struct {
	IssuerID     string `json:"issuer_id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

// KeyRecord is an issuer's signing keypair in storage form. The private key
// is only ever read by the signing path; the public key is freely shared
// with verifiers.
type KeyRecord struct {
	KeyID      string `json:"key_id"`
	IssuerID   string `json:"issuer_id"`
	PrivateKey string `json:"-"`
	PublicKey  string `json:"public_key"`
}

// RegisterRequest creates an issuer account with its keypair.
type RegisterRequest struct {
	IssuerID string `json:"issuer_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Normalize trims surrounding whitespace from identity fields.
func (r *RegisterRequest) Normalize() {
	r.IssuerID = strings.TrimSpace(r.IssuerID)
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
}

// Validate rejects incomplete registrations.
func (r *RegisterRequest) Validate() error {
	switch {
	case r.IssuerID == "":
		return dErrors.New(dErrors.CodeValidation, "issuer_id is required")
	case r.Name == "":
		return dErrors.New(dErrors.CodeValidation, "name is required")
	case r.Username == "":
		return dErrors.New(dErrors.CodeValidation, "username is required")
	case len(r.Password) < 8:
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}

// LoginRequest authenticates an issuer account.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResult returns the created issuer and its public key. The private
// key stays server-side.
type RegisterResult struct {
	Issuer    Issuer `json:"issuer"`
	KeyID     string `json:"key_id"`
	PublicKey string `json:"public_key"`
}

// LoginResult carries a session token for the issuer API.
type LoginResult struct {
	Token     string `json:"token"`
	IssuerID  string `json:"issuer_id"`
	ExpiresIn int64  `json:"expires_in"`
}
