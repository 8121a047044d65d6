package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

// Executor is the query surface shared by pgxpool.Pool and pgx.Tx.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// GetExecutor returns the executor stored in ctx by WithinTransaction or
// WithExecutor, or the pool when none is set. Repos route every query
// through this, so a usecase decides the transaction boundary, not the repo.
func (p *Postgres) GetExecutor(ctx context.Context) Executor {
	if e, ok := ctx.Value(txKey{}).(Executor); ok {
		return e
	}

	return p.Pool
}

// WithExecutor returns a context routing repo queries through e. Repo tests
// use it to capture generated SQL without a live pool.
func WithExecutor(ctx context.Context, e Executor) context.Context {
	return context.WithValue(ctx, txKey{}, e)
}

// WithinTransaction runs f inside a single transaction. The transaction
// travels in the context, f sees it through GetExecutor. Any error from f
// rolls back.
func (p *Postgres) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) (err error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - p.Pool.Begin: %w", err)
	}

	defer func() {
		rbErr := tx.Rollback(ctx)
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("Postgres - WithinTransaction - tx.Rollback: %w", rbErr))
		}
	}()

	if err = f(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return fmt.Errorf("Postgres - WithinTransaction: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - tx.Commit: %w", err)
	}

	return nil
}
