package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor opens the read-committed transactions every ledger commit
// runs in. Row locks, not the isolation level, provide serialization.
type Transactor struct {
	pool Pool
}

// NewTransactor wraps the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin starts a new database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
}
