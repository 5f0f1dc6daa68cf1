// Package apperr defines the error kinds shared by the attendee core and its adapters.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown attendee identifier.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an identifier that is already taken.
	ErrConflict = errors.New("already exists")
	// ErrMalformedPayload marks a structured scan payload that cannot be parsed.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrDependency marks a store or notification failure that is not the caller's fault.
	ErrDependency = errors.New("dependency failure")
)

// Error carries a kind, the operation that failed and an optional cause.
// errors.Is matches both the kind and the cause.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(op, message string) error {
	return &Error{Kind: ErrValidation, Op: op, Message: message}
}

func NotFound(op, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: fmt.Sprintf("attendee %q not found", id)}
}

func Conflict(op, id string) error {
	return &Error{Kind: ErrConflict, Op: op, Message: fmt.Sprintf("attendee %q already exists", id)}
}

func Malformed(op string, err error) error {
	return &Error{Kind: ErrMalformedPayload, Op: op, Err: err}
}

// Dependency wraps err unless it already carries a caller-facing kind.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrValidation) {
		return err
	}
	return &Error{Kind: ErrDependency, Op: op, Err: err}
}

// Message returns the user-facing part of err without the operation prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
