// Package store persists issuer accounts and signing keys.
package store

import (
	"context"

	"certledger/internal/issuer/models"
)

type Store interface {
	// SaveIssuer inserts an issuer account. Returns sentinel.ErrConflict
	// when the issuer id or username is already taken.
	SaveIssuer(ctx context.Context, issuer models.Issuer) error

	// IssuerByID returns an issuer or sentinel.ErrNotFound.
	IssuerByID(ctx context.Context, issuerID string) (models.Issuer, error)

	// IssuerByUsername returns an issuer or sentinel.ErrNotFound.
	IssuerByUsername(ctx context.Context, username string) (models.Issuer, error)

	// SaveKey inserts an issuer's keypair (one per issuer).
	SaveKey(ctx context.Context, key models.KeyRecord) error

	// KeyByIssuerID returns the issuer's keypair or sentinel.ErrNotFound.
	KeyByIssuerID(ctx context.Context, issuerID string) (models.KeyRecord, error)
}
