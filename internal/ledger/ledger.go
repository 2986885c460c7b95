// Package ledger maintains the tamper-evident block chain that anchors
// credential commitments. Each appended block binds one batch's Merkle root
// to its predecessor's hash; the chain is append-only and single-writer per
// index.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"certledger/internal/merkle"
	"certledger/internal/sentinel"
	dErrors "certledger/pkg/domain-errors"
)

// Store is the persistence surface the ledger needs. It mirrors
// ledger/store.Store; redeclared here so the ledger does not import its own
// storage package.
type Store interface {
	AppendBlock(ctx context.Context, block Block, entries []Entry) error
	LatestBlock(ctx context.Context) (Block, error)
	BlockByIndex(ctx context.Context, index int64) (Block, error)
	Blocks(ctx context.Context) ([]Block, error)
	EntryByCertificateID(ctx context.Context, certificateID string) (Entry, error)
	EntriesByBlockIndex(ctx context.Context, index int64) ([]Entry, error)
	Counts(ctx context.Context) (blocks int64, entries int64, err error)
}

// Option configures the ledger.
type Option func(*Ledger)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger reads the chain through a snapshot store and appends through
// whatever unit-of-work store the caller passes in, so the atomicity
// contract stays visible at the call site.
type Ledger struct {
	reads  Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a ledger over the given read store.
func New(reads Store, opts ...Option) *Ledger {
	l := &Ledger{
		reads: reads,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// InitializeGenesis creates block 0 if the chain is empty. It is idempotent:
// an existing chain is returned untouched.
func (l *Ledger) InitializeGenesis(ctx context.Context, uow Store) (Block, error) {
	latest, err := uow.LatestBlock(ctx)
	if err == nil {
		return latest, nil
	}
	if !isNotFound(err) {
		return Block{}, dErrors.Wrap(err, dErrors.CodeStorage, "read latest block")
	}

	genesis := l.buildBlock(0, GenesisPreviousHash, "")
	if err := uow.AppendBlock(ctx, genesis, nil); err != nil {
		if isConflict(err) {
			// Another writer created genesis first; adopt theirs.
			return uow.LatestBlock(ctx)
		}
		return Block{}, dErrors.Wrap(err, dErrors.CodeStorage, "persist genesis block")
	}
	if l.logger != nil {
		l.logger.InfoContext(ctx, "genesis block created", "hash", genesis.Hash)
	}
	return genesis, nil
}

// AppendBatch anchors an ordered batch of commitments in one new block,
// persisting the block and its entries through the caller's unit of work.
// A lost append race surfaces as a conflict domain error; the caller rolls
// back and retries against the new latest block.
func (l *Ledger) AppendBatch(ctx context.Context, uow Store, batch []BatchItem) (Block, error) {
	if len(batch) == 0 {
		return Block{}, dErrors.New(dErrors.CodeBadRequest, "empty batch")
	}

	latest, err := l.InitializeGenesis(ctx, uow)
	if err != nil {
		return Block{}, err
	}

	leaves := make([]string, 0, len(batch))
	for _, item := range batch {
		leaves = append(leaves, item.CommitmentHash)
	}

	block := l.buildBlock(latest.Index+1, latest.Hash, merkle.BuildRoot(leaves))

	entries := make([]Entry, 0, len(batch))
	for _, item := range batch {
		entries = append(entries, Entry{
			CertificateID:  item.CertificateID,
			CommitmentHash: item.CommitmentHash,
			BlockIndex:     block.Index,
			BlockHash:      block.Hash,
			PreviousHash:   block.PreviousHash,
			MerkleRoot:     block.MerkleRoot,
			Timestamp:      block.Timestamp,
		})
	}

	if err := uow.AppendBlock(ctx, block, entries); err != nil {
		if isConflict(err) {
			return Block{}, dErrors.Wrap(err, dErrors.CodeConflict,
				"chain advanced concurrently; retry against the new latest block")
		}
		return Block{}, dErrors.Wrap(err, dErrors.CodeStorage, "persist block")
	}

	if l.logger != nil {
		l.logger.InfoContext(ctx, "block appended",
			"index", block.Index,
			"batch_size", len(batch),
			"merkle_root", block.MerkleRoot,
		)
	}
	return block, nil
}

// LatestBlock returns the newest block, or NotFound on an empty chain.
func (l *Ledger) LatestBlock(ctx context.Context) (Block, error) {
	block, err := l.reads.LatestBlock(ctx)
	if err != nil {
		if isNotFound(err) {
			return Block{}, dErrors.New(dErrors.CodeNotFound, "chain is empty")
		}
		return Block{}, dErrors.Wrap(err, dErrors.CodeStorage, "read latest block")
	}
	return block, nil
}

// ChainInfo reports block/entry counts and the latest hash.
func (l *Ledger) ChainInfo(ctx context.Context) (Info, error) {
	blocks, entries, err := l.reads.Counts(ctx)
	if err != nil {
		return Info{}, dErrors.Wrap(err, dErrors.CodeStorage, "count chain")
	}
	info := Info{BlockCount: blocks, EntryCount: entries, LatestBlockHash: GenesisPreviousHash}
	if latest, err := l.reads.LatestBlock(ctx); err == nil {
		info.LatestBlockHash = latest.Hash
	}
	return info, nil
}

// ValidateChain walks every block: recomputes the header hash, checks the
// link to the predecessor, and recomputes the Merkle root from the block's
// stored entries so leaf-level tampering is caught, not just header edits.
// It reports the earliest defect and never repairs anything.
func (l *Ledger) ValidateChain(ctx context.Context) (ChainReport, error) {
	blocks, err := l.reads.Blocks(ctx)
	if err != nil {
		return ChainReport{}, dErrors.Wrap(err, dErrors.CodeStorage, "read chain")
	}
	_, entryCount, err := l.reads.Counts(ctx)
	if err != nil {
		return ChainReport{}, dErrors.Wrap(err, dErrors.CodeStorage, "count chain")
	}

	report := ChainReport{
		Valid:      true,
		BlockCount: int64(len(blocks)),
		EntryCount: entryCount,
	}
	if len(blocks) == 0 {
		// An empty chain has nothing to contradict.
		return report, nil
	}

	if blocks[0].Index != 0 || blocks[0].PreviousHash != GenesisPreviousHash {
		return l.invalid(ctx, report, 0, FailureLinkBroken), nil
	}

	for i, block := range blocks {
		recomputed := ComputeBlockHash(block.Index, block.PreviousHash, block.Timestamp, block.MerkleRoot)
		if block.Hash != recomputed {
			return l.invalid(ctx, report, block.Index, FailureHashMismatch), nil
		}
		if i > 0 {
			if block.Index != blocks[i-1].Index+1 || block.PreviousHash != blocks[i-1].Hash {
				return l.invalid(ctx, report, block.Index, FailureLinkBroken), nil
			}
		}

		entries, err := l.reads.EntriesByBlockIndex(ctx, block.Index)
		if err != nil {
			return ChainReport{}, dErrors.Wrap(err, dErrors.CodeStorage, "read block entries")
		}
		leaves := make([]string, 0, len(entries))
		for _, entry := range entries {
			leaves = append(leaves, entry.CommitmentHash)
		}
		if merkle.BuildRoot(leaves) != block.MerkleRoot {
			return l.invalid(ctx, report, block.Index, FailureMerkleMismatch), nil
		}
	}

	return report, nil
}

func (l *Ledger) invalid(ctx context.Context, report ChainReport, index int64, failure FailureKind) ChainReport {
	report.Valid = false
	report.FirstInvalidIndex = &index
	report.Failure = failure
	if l.logger != nil {
		l.logger.WarnContext(ctx, "chain validation failed",
			"index", index,
			"failure", string(failure),
		)
	}
	return report
}

func (l *Ledger) buildBlock(index int64, previousHash, merkleRoot string) Block {
	timestamp := l.now().UnixNano()
	return Block{
		Index:        index,
		PreviousHash: previousHash,
		MerkleRoot:   merkleRoot,
		Hash:         ComputeBlockHash(index, previousHash, timestamp, merkleRoot),
		Timestamp:    timestamp,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, sentinel.ErrConflict)
}
