// internal/app/system/jsonio/jsonio.go
package jsonio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator. Field names in its errors are the
// JSON names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Decode reads a JSON body into dst and validates it. Failures are
// apperr.BadRequest with a message naming the offending field.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("request body is required")
		}
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, io.ErrUnexpectedEOF):
			return apperr.BadRequest("malformed JSON")
		case errors.As(err, &syn):
			return apperr.BadRequest("malformed JSON at offset %d", syn.Offset)
		case errors.As(err, &typ):
			return apperr.BadRequest("field %q has the wrong type", typ.Field)
		case errors.As(err, &tooBig):
			return apperr.BadRequest("request body too large")
		}
		return apperr.BadRequest("invalid request body")
	}
	return Validate(dst)
}

// Validate runs struct validation on v.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.BadRequest("invalid request")
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperr.BadRequest("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return apperr.BadRequest("%s must not be empty", field)
		}
		return apperr.BadRequest("%s is too short", field)
	case "max":
		return apperr.BadRequest("%s is too long", field)
	case "oneof":
		return apperr.BadRequest("%s must be one of: %s", field, fe.Param())
	case "email":
		return apperr.BadRequest("%s must be a valid email address", field)
	}
	return apperr.BadRequest("%s is invalid", field)
}

// Write sends v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteError sends e with its mapped status. Only the client-safe message
// leaves the process.
func WriteError(w http.ResponseWriter, e *apperr.Error) {
	if e.Code == apperr.CodeRateLimited {
		w.Header().Set("Retry-After", "60")
	}
	Write(w, e.HTTPStatus(), ErrorBody{Error: e.Message, Code: string(e.Code)})
}

// Message is a small success body.
func Message(format string, args ...any) map[string]string {
	return map[string]string{"message": fmt.Sprintf(format, args...)}
}
