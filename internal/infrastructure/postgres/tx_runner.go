package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

var _ sequencing.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunSequencing inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los advisory locks tomados con Repos.Locker se liberan con la transacción.
func (r *TxRunner) RunSequencing(ctx context.Context, fn func(repos sequencing.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := sequencing.Repos{
		Locker:       advisoryLocker{q: tx},
		ReceiptTypes: NewReceiptTypeRepository(tx),
		Series:       NewReceiptSeriesRepository(tx),
		Receipts:     NewReceiptRepository(tx),
		Invoices:     NewInvoiceRepository(tx),
		Quotes:       NewQuoteRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ repository.SequenceLocker = advisoryLocker{}

// advisoryLocker pg_advisory_xact_lock sobre el hash de la clave; dura hasta el commit o rollback.
type advisoryLocker struct {
	q Querier
}

func (l advisoryLocker) Lock(ctx context.Context, key string) error {
	if _, err := l.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}
