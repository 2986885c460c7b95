package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"certledger/internal/ledger"
	"certledger/internal/sentinel"
)

// querier abstracts *sql.DB and *sql.Tx so the same store code serves both
// standalone reads and unit-of-work writes.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the chain in PostgreSQL.
type PostgresStore struct {
	q querier
}

// NewPostgres constructs a PostgreSQL-backed chain store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{q: db}
}

// NewPostgresTx binds the store to an open transaction so AppendBlock joins
// the caller's unit of work.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{q: tx}
}

func (s *PostgresStore) AppendBlock(ctx context.Context, block ledger.Block, entries []ledger.Entry) error {
	const blockQuery = `
		INSERT INTO blocks (index, previous_hash, merkle_root, hash, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.q.ExecContext(ctx, blockQuery,
		block.Index, block.PreviousHash, block.MerkleRoot, block.Hash, block.Timestamp,
	); err != nil {
		return translateAppendErr(err)
	}

	const entryQuery = `
		INSERT INTO ledger_entries
			(certificate_id, commitment_hash, block_index, block_hash, previous_hash, merkle_root, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, entry := range entries {
		if _, err := s.q.ExecContext(ctx, entryQuery,
			entry.CertificateID, entry.CommitmentHash, entry.BlockIndex,
			entry.BlockHash, entry.PreviousHash, entry.MerkleRoot, entry.Timestamp,
		); err != nil {
			return translateAppendErr(err)
		}
	}
	return nil
}

func (s *PostgresStore) LatestBlock(ctx context.Context) (ledger.Block, error) {
	const query = `
		SELECT index, previous_hash, merkle_root, hash, timestamp
		FROM blocks
		ORDER BY index DESC
		LIMIT 1
	`
	return scanBlock(s.q.QueryRowContext(ctx, query))
}

func (s *PostgresStore) BlockByIndex(ctx context.Context, index int64) (ledger.Block, error) {
	const query = `
		SELECT index, previous_hash, merkle_root, hash, timestamp
		FROM blocks
		WHERE index = $1
	`
	return scanBlock(s.q.QueryRowContext(ctx, query, index))
}

func (s *PostgresStore) Blocks(ctx context.Context) ([]ledger.Block, error) {
	const query = `
		SELECT index, previous_hash, merkle_root, hash, timestamp
		FROM blocks
		ORDER BY index ASC
	`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []ledger.Block
	for rows.Next() {
		var b ledger.Block
		if err := rows.Scan(&b.Index, &b.PreviousHash, &b.MerkleRoot, &b.Hash, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (s *PostgresStore) EntryByCertificateID(ctx context.Context, certificateID string) (ledger.Entry, error) {
	const query = `
		SELECT certificate_id, commitment_hash, block_index, block_hash, previous_hash, merkle_root, timestamp
		FROM ledger_entries
		WHERE certificate_id = $1
	`
	var e ledger.Entry
	err := s.q.QueryRowContext(ctx, query, certificateID).Scan(
		&e.CertificateID, &e.CommitmentHash, &e.BlockIndex,
		&e.BlockHash, &e.PreviousHash, &e.MerkleRoot, &e.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Entry{}, sentinel.ErrNotFound
		}
		return ledger.Entry{}, fmt.Errorf("find ledger entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) EntriesByBlockIndex(ctx context.Context, index int64) ([]ledger.Entry, error) {
	const query = `
		SELECT certificate_id, commitment_hash, block_index, block_hash, previous_hash, merkle_root, timestamp
		FROM ledger_entries
		WHERE block_index = $1
		ORDER BY id ASC
	`
	rows, err := s.q.QueryContext(ctx, query, index)
	if err != nil {
		return nil, fmt.Errorf("list block entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(
			&e.CertificateID, &e.CommitmentHash, &e.BlockIndex,
			&e.BlockHash, &e.PreviousHash, &e.MerkleRoot, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Counts(ctx context.Context) (int64, int64, error) {
	var blocks, entries int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&blocks); err != nil {
		return 0, 0, fmt.Errorf("count blocks: %w", err)
	}
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_entries`).Scan(&entries); err != nil {
		return 0, 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return blocks, entries, nil
}

func scanBlock(row *sql.Row) (ledger.Block, error) {
	var b ledger.Block
	err := row.Scan(&b.Index, &b.PreviousHash, &b.MerkleRoot, &b.Hash, &b.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Block{}, sentinel.ErrNotFound
		}
		return ledger.Block{}, fmt.Errorf("scan block: %w", err)
	}
	return b, nil
}

// translateAppendErr maps unique violations on blocks.index, blocks.hash, or
// ledger_entries.certificate_id to the conflict sentinel. The database
// constraint is the authoritative guard against append races.
func translateAppendErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("append block: %w", err)
}

var _ Store = (*PostgresStore)(nil)
