package store

import (
	"fmt"

	"github.com/iota-uz/vault-import/pkg/serrors"
)

// Error is a persistence failure with the backend diagnostic attached.
type Error struct {
	Op string
	// Code is the backend error code (SQLSTATE for PostgreSQL), if any.
	Code   string
	Hint   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error { return []error{e.Err, serrors.ErrPersistence} }

// Diagnostic renders the backend details for operators.
func (e *Error) Diagnostic() string {
	msg := e.Error()
	if e.Code != "" {
		msg += fmt.Sprintf(" [code %s]", e.Code)
	}
	if e.Detail != "" {
		msg += " detail: " + e.Detail
	}
	if e.Hint != "" {
		msg += " hint: " + e.Hint
	}
	return msg
}
