// Package store persists the hash chain: blocks and their per-commitment
// ledger entries. Implementations must make AppendBlock atomic and must
// reject a second block claiming an already-taken index with
// sentinel.ErrConflict, since that is the chain's single serialization point.
package store

import (
	"context"

	"certledger/internal/ledger"
)

type Store interface {
	// AppendBlock persists a block and its entries in one atomic write.
	// Returns sentinel.ErrConflict when another writer already took the
	// index or extended the same predecessor.
	AppendBlock(ctx context.Context, block ledger.Block, entries []ledger.Entry) error

	// LatestBlock returns the highest-index block, or sentinel.ErrNotFound
	// on an empty chain.
	LatestBlock(ctx context.Context) (ledger.Block, error)

	// BlockByIndex returns the block at the given index, or sentinel.ErrNotFound.
	BlockByIndex(ctx context.Context, index int64) (ledger.Block, error)

	// Blocks returns the full chain ordered by ascending index.
	Blocks(ctx context.Context) ([]ledger.Block, error)

	// EntryByCertificateID returns the ledger entry anchoring a certificate,
	// or sentinel.ErrNotFound.
	EntryByCertificateID(ctx context.Context, certificateID string) (ledger.Entry, error)

	// EntriesByBlockIndex returns a block's entries in batch order.
	EntriesByBlockIndex(ctx context.Context, index int64) ([]ledger.Entry, error)

	// Counts reports the number of blocks and entries on the chain.
	Counts(ctx context.Context) (blocks int64, entries int64, err error)
}
