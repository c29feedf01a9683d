package composables

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNoTx = errors.New("no transaction found in context")
	ErrNoDB = errors.New("no database handle found in context")
)

// Querier is the subset of *sql.DB and *sql.Tx used by repositories.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// UseTx returns the transaction in ctx, falling back to the database handle.
func UseTx(ctx context.Context) (Querier, error) {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok && tx != nil {
		return tx, nil
	}
	return UseDB(ctx)
}

func WithDB(ctx context.Context, db *sql.DB) context.Context {
	return context.WithValue(ctx, dbKey, db)
}

func UseDB(ctx context.Context) (*sql.DB, error) {
	db, ok := ctx.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, ErrNoDB
	}
	return db, nil
}

// InTx runs fn in a new transaction on the database in ctx. The transaction is
// committed when fn returns nil and rolled back on every other exit path, panics included.
func InTx(ctx context.Context, fn func(context.Context) error) error {
	db, err := UseDB(ctx)
	if err != nil {
		return err
	}
	return InTxOn(ctx, db, fn)
}

// InTxOn is InTx against an explicit handle.
func InTxOn(ctx context.Context, db *sql.DB, fn func(context.Context) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rErr := tx.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) {
			err = errors.Join(err, rErr)
		}
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func InTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}
