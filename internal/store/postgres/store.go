// Package postgres implements core.Store on pgx. Row locks use SELECT ... FOR UPDATE
// inside READ COMMITTED transactions.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"order-management/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements core.Store.
type Store struct {
	queries
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{q: pool}, pool: pool}
}

// InTx begins a transaction, runs fn, and commits when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txn{queries: queries{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Postgres error codes the store translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// translate maps constraint violations to readable errors and leaves others wrapped.
func translate(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: duplicate value violates %s: %w", action, pgErr.ConstraintName, err)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: referenced row missing (%s): %w", action, pgErr.ConstraintName, err)
		case codeCheckViolation:
			return fmt.Errorf("%s: check %s failed: %w", action, pgErr.ConstraintName, err)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}
