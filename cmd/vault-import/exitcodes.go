package main

import (
	"errors"

	"github.com/iota-uz/vault-import/pkg/serrors"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
	exitDBWrite    = 5
	exitSafetyNet  = 6
	exitCancelled  = 7
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

// codeFor maps an import error code to the process exit code.
func codeFor(errorCode string) int {
	switch errorCode {
	case "":
		return exitOK
	case serrors.ErrStructural.Code:
		return exitValidation
	case serrors.ErrPersistence.Code:
		return exitDBWrite
	case serrors.ErrAborted.Code:
		return exitSafetyNet
	case serrors.ErrCancelled.Code:
		return exitCancelled
	default:
		return 1
	}
}
