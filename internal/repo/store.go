package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ========================
// STORE
// ========================

// Store is the Postgres entity store. Reads go straight to the pool; writes
// run inside WithTx and lock the rows they modify with SELECT ... FOR UPDATE.
type Store struct {
	DB *sql.DB
}

var _ lifecycle.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// WithTx runs fn in a read-committed transaction. Row locks taken through
// the Tx serialize writers on the same asset or material.
func (s *Store) WithTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&pgTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Ping checks database connectivity for /ready.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// pgTx implements lifecycle.Tx on an open transaction.
type pgTx struct {
	q queryer
}

var _ lifecycle.Tx = (*pgTx)(nil)

// limitArg turns "no limit" into NULL, which Postgres reads as LIMIT ALL.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
