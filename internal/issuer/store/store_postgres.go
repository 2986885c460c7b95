package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"certledger/internal/issuer/models"
	"certledger/internal/sentinel"
)

// PostgresStore persists issuers and keys in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed issuer store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveIssuer(ctx context.Context, issuer models.Issuer) error {
	const query = `
		INSERT INTO issuers (issuer_id, name, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		issuer.IssuerID, issuer.Name, issuer.Username, issuer.PasswordHash, issuer.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("save issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) IssuerByID(ctx context.Context, issuerID string) (models.Issuer, error) {
	const query = `
		SELECT issuer_id, name, username, password_hash, created_at
		FROM issuers
		WHERE issuer_id = $1
	`
	return s.scanIssuer(s.db.QueryRowContext(ctx, query, issuerID))
}

func (s *PostgresStore) IssuerByUsername(ctx context.Context, username string) (models.Issuer, error) {
	const query = `
		SELECT issuer_id, name, username, password_hash, created_at
		FROM issuers
		WHERE username = $1
	`
	return s.scanIssuer(s.db.QueryRowContext(ctx, query, username))
}

func (s *PostgresStore) SaveKey(ctx context.Context, key models.KeyRecord) error {
	const query = `
		INSERT INTO issuer_keys (key_id, issuer_id, private_key, public_key)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, key.KeyID, key.IssuerID, key.PrivateKey, key.PublicKey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("save issuer key: %w", err)
	}
	return nil
}

func (s *PostgresStore) KeyByIssuerID(ctx context.Context, issuerID string) (models.KeyRecord, error) {
	const query = `
		SELECT key_id, issuer_id, private_key, public_key
		FROM issuer_keys
		WHERE issuer_id = $1
	`
	var key models.KeyRecord
	err := s.db.QueryRowContext(ctx, query, issuerID).Scan(
		&key.KeyID, &key.IssuerID, &key.PrivateKey, &key.PublicKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.KeyRecord{}, sentinel.ErrNotFound
		}
		return models.KeyRecord{}, fmt.Errorf("find issuer key: %w", err)
	}
	return key, nil
}

func (s *PostgresStore) scanIssuer(row *sql.Row) (models.Issuer, error) {
	var issuer models.Issuer
	err := row.Scan(&issuer.IssuerID, &issuer.Name, &issuer.Username, &issuer.PasswordHash, &issuer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Issuer{}, sentinel.ErrNotFound
		}
		return models.Issuer{}, fmt.Errorf("scan issuer: %w", err)
	}
	return issuer, nil
}

var _ Store = (*PostgresStore)(nil)
