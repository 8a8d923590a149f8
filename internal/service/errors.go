package service

import (
	"errors"
	"fmt"

	"movie-votr-api/internal/repository"
)

// Error kinds. Handlers map each kind to an HTTP status.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrBadRequest          = errors.New("bad request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamFailed      = errors.New("upstream failed")
)

// Error is a domain error carrying a kind and a human readable detail.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// notFoundOr turns repository.ErrNotFound into a NotFound domain error with
// detail and wraps anything else as an unexpected failure.
func notFoundOr(err error, detail, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "%s", detail)
	}
	return fmt.Errorf("%s: %w", op, err)
}
