// Package services implements the consistency core of the backend: toggled
// reactions, threaded comments, and the flag ledger, each executing its
// multi-entity mutations inside a single storage transaction.
package services

import (
	"errors"

	"gorm.io/gorm"
)

// ErrorKind classifies a service failure for the transport layer. Handlers
// map kinds to HTTP statuses; callers never see raw storage errors beyond
// the KindStorage classification.
type ErrorKind int

const (
	KindBadRequest ErrorKind = iota + 1
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindStorage
)

// Error is a kind-tagged service error.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// BadRequest marks user-correctable input failures: malformed, duplicate,
// rate-limited, or invalid-state requests.
func BadRequest(message string) error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// NotFound marks a referenced entity that is absent or soft-deleted.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden marks an authenticated caller lacking role or ownership.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Unauthorized marks a caller with no resolved identity.
func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// StorageError wraps a transaction or connectivity failure.
func StorageError(cause error) error {
	return &Error{Kind: KindStorage, Message: "storage failure", cause: cause}
}

// Kind classifies err; unrecognized errors count as storage failures.
func Kind(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// notFoundOrStorage translates a repository lookup failure: a missing (or
// soft-deleted) row becomes NotFound, anything else a storage error.
func notFoundOrStorage(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(message)
	}
	return StorageError(err)
}
