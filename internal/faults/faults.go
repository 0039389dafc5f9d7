// Package faults classifies errors raised by managers and collaborators so
// callers can map them to user-visible behavior without string matching.
//
// Kinds mirror the failure taxonomy of the application: not_found resolves to
// a safe-route fallback in views and 404 on the API, validation re-prompts the
// user, authorization aborts the pending action, storage and network surface
// as transient notices. No operation is retried automatically.
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a coarse error classification.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindStorage       Kind = "storage"
	KindNetwork       Kind = "network"
)

// Classifier allows errors to declare their classification.
type Classifier interface {
	ErrorKind() Kind
}

// Error is a classified error with an operator-readable message.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// ErrorKind implements Classifier.
func (e *Error) ErrorKind() Kind { return e.kind }

// New builds a classified error from a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a classification to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// NotFound builds a not_found error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Validation builds a validation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Authorization builds an authorization error.
func Authorization(format string, args ...any) *Error {
	return New(KindAuthorization, format, args...)
}

// KindOf returns the classification of err, or an empty Kind when the error
// chain carries none.
func KindOf(err error) Kind {
	var classifier Classifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a classified error to an HTTP response status. Unclassified
// errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindStorage, KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
