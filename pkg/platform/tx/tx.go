// Package tx carries a pgx transaction through context so stores can join a
// caller's unit of work without changing their signatures.
package tx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ctxKey struct{}

var txKey = ctxKey{}

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx stores a transaction in context for downstream store usage.
func WithTx(ctx context.Context, t pgx.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, t)
}

// From extracts a transaction from context if present.
func From(ctx context.Context) (pgx.Tx, bool) {
	t, ok := ctx.Value(txKey).(pgx.Tx)
	return t, ok
}

// QuerierFor returns the context transaction when one is active, else the pool.
func QuerierFor(ctx context.Context, pool *pgxpool.Pool) Querier {
	if t, ok := From(ctx); ok {
		return t
	}
	return pool
}

// Run executes fn inside a transaction. Nested calls reuse the outer
// transaction and leave commit to the outermost caller.
func Run(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	t, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = t.Rollback(ctx)
	}()
	if err := fn(WithTx(ctx, t)); err != nil {
		return err
	}
	if err := t.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
