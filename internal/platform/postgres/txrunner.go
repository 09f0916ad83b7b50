package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner implements tx.Runner over a pgx pool. The serialization key is
// ignored; postgres row locks (SELECT ... FOR UPDATE) provide per-entity
// ordering inside the transaction.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pgxTx, err := r.pool.Begin(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = pgxTx.Rollback(ctx)
	}()

	if err := fn(tx.WithTx(ctx, pgxTx)); err != nil {
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
