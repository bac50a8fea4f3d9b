// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"go.uber.org/zap"
)

// ErrorLogger turns handler errors into JSON error responses and logs the
// ones the client cannot act on.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Respond classifies err and writes it. Internal and unavailable errors are
// logged with their cause; the client only sees the generic message.
func (l *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, op string, err error) {
	e := apperr.From(err)
	switch e.Code {
	case apperr.CodeInternal:
		l.log.Error(op+" failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	case apperr.CodeUnavailable:
		l.log.Warn(op+" unavailable",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	jsonio.WriteError(w, e)
}

// Handler serves the router's fallback responses.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers routes that do not exist.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonio.WriteError(w, apperr.NotFound("no route for "+r.URL.Path))
}

// MethodNotAllowed answers a known route hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonio.Write(w, http.StatusMethodNotAllowed, jsonio.ErrorBody{
		Error: r.Method + " is not allowed on " + r.URL.Path,
		Code:  "method_not_allowed",
	})
}
