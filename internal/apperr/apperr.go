// Package apperr defines the error kinds surfaced to callers: validation,
// authorization, not found, conflict and store failures.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindStore
)

// Sentinels usable with errors.Is
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrStore           = &Error{Kind: KindStore}
)

// Error carries a kind, an i18n key and an English fallback message
type Error struct {
	Kind    Kind
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Key
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so that errors.Is(err, ErrNotFound) works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Key == "" || t.Key == e.Key)
}

// Validation reports missing or malformed input
func Validation(key, message string) error {
	return &Error{Kind: KindValidation, Key: key, Message: message}
}

// Unauthenticated reports a missing or expired session
func Unauthenticated(key, message string) error {
	return &Error{Kind: KindUnauthenticated, Key: key, Message: message}
}

// Forbidden reports a role mismatch
func Forbidden(key, message string) error {
	return &Error{Kind: KindForbidden, Key: key, Message: message}
}

// NotFound reports an absent entity
func NotFound(key, message string) error {
	return &Error{Kind: KindNotFound, Key: key, Message: message}
}

// Conflict reports a state that no longer permits the operation
func Conflict(key, message string) error {
	return &Error{Kind: KindConflict, Key: key, Message: message}
}

// Store wraps a backend failure. Nil in, nil out.
func Store(message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStore, Key: "error.store", Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// KeyOf returns the i18n key of the first *Error in the chain
func KeyOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Key
	}
	return ""
}

// HTTPStatus maps an error to a response status
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
