package persistence

import (
	"errors"
	"strconv"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"

	"github.com/iota-uz/vault-import/modules/vault/domain/store"
)

// wrap attaches the backend diagnostic to err. It returns nil for a nil err.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	se := &store.Error{Op: op, Err: gerrors.Wrap(err, op)}
	var pgErr *pgconn.PgError
	var liteErr *sqlite.Error
	switch {
	case errors.As(err, &pgErr):
		se.Code = pgErr.Code
		se.Hint = pgErr.Hint
		se.Detail = pgErr.Detail
	case errors.As(err, &liteErr):
		se.Code = strconv.Itoa(liteErr.Code())
	}
	return se
}
