package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Structured error codes surfaced to callers.
const (
	CodeNotFound         = "not_found"
	CodePermissionDenied = "permission_denied"
	CodeConflict         = "conflict"
	CodeValidation       = "validation_failed"
	CodeRejected         = "rejected"
	CodeBackend          = "backend_error"
)

// Error is a backend failure in the shape the backend reports it. Message is
// safe to show to the user as-is.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func Rejected(message string) *Error {
	return &Error{Code: CodeRejected, Message: message}
}

// IsCode reports whether err is a structured error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// FromDB converts a driver error into an *Error. Errors that are already
// structured pass through unchanged.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Code: CodeNotFound, Message: "Record not found", cause: err}
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return &Error{Code: CodeBackend, Message: err.Error(), cause: err}
	}

	e := &Error{
		Code:    CodeBackend,
		Message: pqErr.Message,
		Details: pqErr.Detail,
		Hint:    pqErr.Hint,
		cause:   err,
	}
	switch pqErr.Code {
	case "42501":
		e.Code = CodePermissionDenied
	case "23505":
		e.Code = CodeConflict
	case "23514", "23502", "23503", "22P02":
		e.Code = CodeValidation
	case "P0001":
		e.Code = CodeRejected
	}
	return e
}
