package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Transactor runs fn as one atomic unit of work. Repositories called with the
// ctx handed to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) error
}

// Querier is the subset of *sql.DB and *sql.Tx used by repositories.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func (s *DBService) WithinTx(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx, s.logger)
			panic(p)
		} else if err != nil {
			safeRollback(tx, s.logger)
		} else {
			err = tx.Commit()
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func safeRollback(tx *sql.Tx, logger *slog.Logger) {
	if err := tx.Rollback(); err != nil {
		logger.Error("error during transaction rollback", "error", err)
	}
}
