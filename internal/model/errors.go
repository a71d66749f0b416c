package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage failure")
)

// Error is a Go-level failure bound for a Result. Code paths that must
// return error (request decoding, persistence, token acquisition) use it;
// FromError converts it at the edge.
type Error struct {
	Kind    FailureKind
	Message string // shown to the user
	Field   string // validation failures only
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		b.WriteString(" [" + e.Field + "]")
	}
	b.WriteString(": " + e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError rejects one input field.
func NewValidationError(field, reason string) *Error {
	return &Error{
		Kind:    FailureValidation,
		Message: reason,
		Field:   field,
		Err:     ErrInvalidInput,
	}
}

// NewUnauthorizedError reports a missing or refused credential.
func NewUnauthorizedError(reason string) *Error {
	return &Error{
		Kind:    FailureAuth,
		Message: reason,
		Err:     ErrUnauthorized,
	}
}

// NewStorageError wraps a failed write of key.
func NewStorageError(key string, err error) *Error {
	return &Error{
		Kind:    FailureInternal,
		Message: "could not persist " + key,
		Err:     fmt.Errorf("%w: %v", ErrStorage, err),
	}
}
