package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/datagen/internal/store"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrConflict      = errors.New("conflict")
)

// Error is a failure with a user-facing title and message. Kind is one of the
// sentinel errors above or store.ErrNotFound.
type Error struct {
	Kind    error
	Title   string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Title
	}
	return e.Title + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, title, format string, args ...any) *Error {
	return &Error{Kind: kind, Title: title, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) *Error {
	return &Error{Kind: store.ErrNotFound, Title: what + " not found"}
}

func forbidden() *Error {
	return &Error{Kind: ErrForbidden, Title: "Unauthorized access"}
}

// lookup maps store.ErrNotFound onto a titled not-found error and wraps
// anything else.
func lookup(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(what)
	}
	return fmt.Errorf("failed to load %s: %w", strings.ToLower(what), err)
}
