package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"certledger/internal/credential/models"
	"certledger/internal/sentinel"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists credentials and signatures in PostgreSQL.
type PostgresStore struct {
	q querier
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{q: db}
}

// NewPostgresTx binds the store to an open transaction so writes join the
// caller's unit of work.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{q: tx}
}

const credentialColumns = `
	certificate_id, subject_name, subject_id, claim_name, claim_value,
	issuer_id, issuer_name, issue_date, timestamp, status, revocation_reason
`

func (s *PostgresStore) SaveCredential(ctx context.Context, credential models.Credential) error {
	const query = `
		INSERT INTO credentials
			(certificate_id, subject_name, subject_id, claim_name, claim_value,
			 issuer_id, issuer_name, issue_date, timestamp, status, revocation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.q.ExecContext(ctx, query,
		credential.CertificateID, credential.SubjectName, credential.SubjectID,
		credential.ClaimName, credential.ClaimValue,
		credential.IssuerID, credential.IssuerName, credential.IssueDate,
		credential.Timestamp, string(credential.Status), nullable(credential.RevocationReason),
	)
	if err != nil {
		return translateInsertErr(err, "save credential")
	}
	return nil
}

func (s *PostgresStore) CredentialByID(ctx context.Context, certificateID string) (models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE certificate_id = $1`
	credential, err := scanCredential(s.q.QueryRowContext(ctx, query, certificateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Credential{}, sentinel.ErrNotFound
		}
		return models.Credential{}, fmt.Errorf("find credential by id: %w", err)
	}
	return credential, nil
}

func (s *PostgresStore) CredentialsBySubject(ctx context.Context, subjectID string) ([]models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE subject_id = $1 ORDER BY timestamp DESC`
	return s.list(ctx, query, subjectID)
}

func (s *PostgresStore) CredentialsByIssuer(ctx context.Context, issuerID string) ([]models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE issuer_id = $1 ORDER BY timestamp DESC`
	return s.list(ctx, query, issuerID)
}

func (s *PostgresStore) SetStatus(ctx context.Context, certificateID string, status models.Status, reason string) error {
	const query = `
		UPDATE credentials
		SET status = $2, revocation_reason = $3
		WHERE certificate_id = $1
	`
	result, err := s.q.ExecContext(ctx, query, certificateID, string(status), nullable(reason))
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveSignature(ctx context.Context, record models.SignatureRecord) error {
	const query = `
		INSERT INTO signatures (certificate_id, signer_key_id, signature, public_key)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.q.ExecContext(ctx, query,
		record.CertificateID, record.SignerKeyID, record.Signature, record.PublicKey,
	)
	if err != nil {
		return translateInsertErr(err, "save signature")
	}
	return nil
}

func (s *PostgresStore) SignatureByCertificateID(ctx context.Context, certificateID string) (models.SignatureRecord, error) {
	const query = `
		SELECT certificate_id, signer_key_id, signature, public_key
		FROM signatures
		WHERE certificate_id = $1
	`
	var record models.SignatureRecord
	err := s.q.QueryRowContext(ctx, query, certificateID).Scan(
		&record.CertificateID, &record.SignerKeyID, &record.Signature, &record.PublicKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SignatureRecord{}, sentinel.ErrNotFound
		}
		return models.SignatureRecord{}, fmt.Errorf("find signature: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) StatusCounts(ctx context.Context) (int64, int64, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'revoked')
		FROM credentials
	`
	var active, revoked int64
	if err := s.q.QueryRowContext(ctx, query).Scan(&active, &revoked); err != nil {
		return 0, 0, fmt.Errorf("count credentials: %w", err)
	}
	return active, revoked, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]models.Credential, error) {
	rows, err := s.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var credentials []models.Credential
	for rows.Next() {
		credential, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		credentials = append(credentials, credential)
	}
	return credentials, rows.Err()
}

type credentialRow interface {
	Scan(dest ...any) error
}

func scanCredential(row credentialRow) (models.Credential, error) {
	var credential models.Credential
	var status string
	var reason sql.NullString
	if err := row.Scan(
		&credential.CertificateID, &credential.SubjectName, &credential.SubjectID,
		&credential.ClaimName, &credential.ClaimValue,
		&credential.IssuerID, &credential.IssuerName, &credential.IssueDate,
		&credential.Timestamp, &status, &reason,
	); err != nil {
		return models.Credential{}, err
	}
	credential.Status = models.Status(status)
	if reason.Valid {
		credential.RevocationReason = reason.String
	}
	return credential, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func translateInsertErr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ Store = (*PostgresStore)(nil)
