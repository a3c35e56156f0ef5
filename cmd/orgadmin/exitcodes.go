package main

import (
	"context"
	"errors"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
	"github.com/iota-uz/orgadmin/pkg/httpapi"
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
	exitAPI        = 4
	exitAborted    = 5
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
	if ok := errors.As(err, &ce); ok {
		return ce.code
	}
	return classify(err)
}

func classify(err error) int {
	var apiErr *httpapi.Error
	switch {
	case domain.IsValidationError(err):
		return exitValidation
	case errors.Is(err, services.ErrInvalidPage), errors.Is(err, services.ErrNotSupported):
		return exitUsage
	case errors.Is(err, services.ErrScopeClosed), errors.Is(err, context.Canceled):
		return exitAborted
	case errors.As(err, &apiErr):
		return exitAPI
	default:
		return 1
	}
}

// userError prints text in place of the underlying cause.
type userError struct {
	text  string
	cause error
}

func (e *userError) Error() string { return e.text }

func (e *userError) Unwrap() error { return e.cause }
