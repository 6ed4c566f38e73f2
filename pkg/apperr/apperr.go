// Package apperr defines the error taxonomy surfaced to API clients.
//
// Every error carries an HTTP status, an 8-character code of the form
// E<domain:3><sequence:4> and a human-readable message. An empty Field means
// the error is not bound to a request field and is reported as "non_field".
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// NonField is the wire key for errors that are not bound to a request field.
const NonField = "non_field"

type Error struct {
	Status  int
	Code    string
	Message string
	Field   string
	cause   error
}

// Define registers a catalog entry. Entries are templates; use On/Wrap to
// derive request-specific copies.
func Define(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	if e.Field != "" {
		b.WriteString(" [" + e.Field + "]")
	}
	b.WriteString(": " + e.Message)
	if e.cause != nil {
		b.WriteString(": " + e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches catalog entries by code so callers can compare against the
// template regardless of field or wrapped cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// On returns a copy bound to field.
func (e *Error) On(field string) *Error {
	c := *e
	c.Field = field
	return &c
}

// Wrap returns a copy that records cause for logs. The cause is never sent
// to clients.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// FieldKey is the key used on the wire.
func (e *Error) FieldKey() string {
	if e.Field == "" {
		return NonField
	}
	return e.Field
}

// List groups several errors raised by one validation pass.
type List []*Error

func (l List) Error() string {
	parts := make([]string, 0, len(l))
	for _, e := range l {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Is reports whether any member matches target.
func (l List) Is(target error) bool {
	for _, e := range l {
		if e.Is(target) {
			return true
		}
	}
	return false
}

// Status returns the status of the first member.
func (l List) Status() int {
	if len(l) == 0 {
		return http.StatusBadRequest
	}
	return l[0].Status
}

// Err returns nil for an empty list so callers can `return errs.Err()`.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// From extracts the client-facing errors from err. ok is false when err
// carries no catalog entry and must be treated as an internal failure.
func From(err error) (List, bool) {
	var l List
	if errors.As(err, &l) {
		return l, true
	}
	var e *Error
	if errors.As(err, &e) {
		return List{e}, true
	}
	return nil, false
}
