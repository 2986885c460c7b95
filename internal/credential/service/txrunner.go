package service

import (
	"context"
	"sync"

	credstore "certledger/internal/credential/store"
	"certledger/internal/ledger"
)

// UnitOfWork exposes the stores a transaction writes through. A ledger append
// and its private records either all land or none do.
type UnitOfWork interface {
	Ledger() ledger.Store
	Credentials() credstore.Store
}

// TxRunner executes fn inside one transaction boundary. fn returning an error
// rolls everything back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// MemoryTxRunner runs transactions against in-memory stores. Instead of
// staging a rollback it serializes transactions under one mutex and relies on
// the flush path writing the block before any credential rows, so a lost
// append leaves no partial state behind.
type MemoryTxRunner struct {
	mu     sync.Mutex
	ledger ledger.Store
	creds  credstore.Store
}

// NewMemoryTxRunner creates a runner over the given in-memory stores.
func NewMemoryTxRunner(ledgerStore ledger.Store, credentialStore credstore.Store) *MemoryTxRunner {
	return &MemoryTxRunner{ledger: ledgerStore, creds: credentialStore}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, memoryUnitOfWork{runner: r})
}

type memoryUnitOfWork struct {
	runner *MemoryTxRunner
}

func (u memoryUnitOfWork) Ledger() ledger.Store         { return u.runner.ledger }
func (u memoryUnitOfWork) Credentials() credstore.Store { return u.runner.creds }

var _ TxRunner = (*MemoryTxRunner)(nil)
