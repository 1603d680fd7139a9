package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthorizationError indicates that a session's email is not on the admin
// allow-list. The email is surfaced on purpose so admins can self-debug a
// missing allow-list entry.
type AuthorizationError struct {
	Email string
}

func NewAuthorizationError(email string) error {
	return &AuthorizationError{Email: email}
}

func (err AuthorizationError) Error() string {
	return fmt.Sprintf("email %s is not in the admin allow-list", err.Email)
}

// temporary is the contract transient errors satisfy; the storage layer
// retries them with bounded backoff before giving up.
type temporary interface {
	Temporary() bool
}

func IsTemporary(err error) bool {
	te, ok := errors.Cause(err).(temporary)
	return ok && te.Temporary()
}

type transientError struct {
	err error
}

func NewTransientError(err error) error {
	return &transientError{err: err}
}

func (e transientError) Error() string   { return e.err.Error() }
func (e transientError) Unwrap() error   { return e.err }
func (e transientError) Temporary() bool { return true }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
