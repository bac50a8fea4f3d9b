// Package apperr is the error taxonomy shared by the workflow service and the
// HTTP layer.
//
// Every error returned across a package boundary that a client may see is an
// *Error with a Code. Codes map one-to-one onto HTTP status codes; Internal
// and Unavailable errors keep their cause for logging but never expose it in
// Message.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
)

// Code classifies an error.
type Code string

const (
	CodeUnauthenticated   Code = "unauthenticated"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeBadRequest        Code = "bad_request"
	CodeInvalidTransition Code = "invalid_transition"
	CodeRateLimited       Code = "rate_limited"
	CodeUnavailable       Code = "unavailable"
	CodeInternal          Code = "internal"
)

// Error is a classified application error.
type Error struct {
	Code      Code
	Message   string // safe to show to clients
	Retryable bool
	Err       error // cause; logged, never shown
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the response status for the error's code.
func (e *Error) HTTPStatus() int { return StatusFor(e.Code) }

// StatusFor maps a code onto an HTTP status.
func StatusFor(c Code) int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeBadRequest, CodeInvalidTransition:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Unauthenticated(msg string) *Error { return &Error{Code: CodeUnauthenticated, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Code: CodeForbidden, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Code: CodeNotFound, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Code: CodeConflict, Message: msg} }
func RateLimited(msg string) *Error     { return &Error{Code: CodeRateLimited, Message: msg, Retryable: true} }

// BadRequest formats a validation message.
func BadRequest(format string, args ...any) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a status change absent from the transition table.
func InvalidTransition(entity string, from, to any) *Error {
	return &Error{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot change %s status from %v to %v", entity, from, to),
	}
}

// Internal wraps a storage or provider failure behind a generic message.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", Err: err}
}

// Unavailable wraps a transient failure the client may retry.
func Unavailable(err error) *Error {
	return &Error{Code: CodeUnavailable, Message: "service temporarily unavailable, please retry", Retryable: true, Err: err}
}

// From classifies any error. *Error values pass through; docstore sentinels
// and context deadlines are mapped; everything else becomes Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, docstore.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return Unavailable(err)
	case errors.Is(err, docstore.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: "not found", Err: err}
	case errors.Is(err, docstore.ErrAlreadyExists):
		return &Error{Code: CodeConflict, Message: "already exists", Err: err}
	}
	return Internal(err)
}

// CodeOf returns the classified code of err ("" for nil).
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}

// Is reports whether err classifies as code.
func Is(err error, code Code) bool { return err != nil && CodeOf(err) == code }
