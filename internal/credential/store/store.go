// Package store persists private credential records and their signature
// records. Certificate-id uniqueness is enforced here; it is the
// authoritative guard under concurrent issuance.
package store

import (
	"context"

	"certledger/internal/credential/models"
)

type Store interface {
	// SaveCredential inserts a private record. Returns sentinel.ErrConflict
	// when the certificate id is already taken.
	SaveCredential(ctx context.Context, credential models.Credential) error

	// CredentialByID returns a private record or sentinel.ErrNotFound.
	CredentialByID(ctx context.Context, certificateID string) (models.Credential, error)

	// CredentialsBySubject lists a subject's credentials, newest first.
	CredentialsBySubject(ctx context.Context, subjectID string) ([]models.Credential, error)

	// CredentialsByIssuer lists an issuer's credentials, newest first.
	CredentialsByIssuer(ctx context.Context, issuerID string) ([]models.Credential, error)

	// SetStatus flips a credential's status and records the reason.
	// Returns sentinel.ErrNotFound for unknown ids.
	SetStatus(ctx context.Context, certificateID string, status models.Status, reason string) error

	// SaveSignature inserts a signature record (one per certificate).
	SaveSignature(ctx context.Context, record models.SignatureRecord) error

	// SignatureByCertificateID returns a signature record or sentinel.ErrNotFound.
	SignatureByCertificateID(ctx context.Context, certificateID string) (models.SignatureRecord, error)

	// StatusCounts reports how many credentials are active and revoked.
	StatusCounts(ctx context.Context) (active int64, revoked int64, err error)
}
