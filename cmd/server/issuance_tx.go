package main

import (
	"context"
	"database/sql"
	"time"

	credservice "certledger/internal/credential/service"
	credstore "certledger/internal/credential/store"
	"certledger/internal/ledger"
	ledgerstore "certledger/internal/ledger/store"
	dErrors "certledger/pkg/domain-errors"
)

const defaultIssuanceTxTimeout = 5 * time.Second

// issuancePostgresTx runs credential issuance transactions against Postgres.
// The block append and the private records commit or roll back together.
type issuancePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newIssuancePostgresTx(db *sql.DB) *issuancePostgresTx {
	return &issuancePostgresTx{db: db}
}

func (t *issuancePostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, uow credservice.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultIssuanceTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := fn(ctx, postgresUnitOfWork{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

type postgresUnitOfWork struct {
	tx *sql.Tx
}

func (u postgresUnitOfWork) Ledger() ledger.Store {
	return ledgerstore.NewPostgresTx(u.tx)
}

func (u postgresUnitOfWork) Credentials() credstore.Store {
	return credstore.NewPostgresTx(u.tx)
}

var _ credservice.TxRunner = (*issuancePostgresTx)(nil)
