// Package errs defines the error shape returned to API clients.
package errs

import (
	"net/http"
	"strings"
)

// FieldError is a validation problem with a single request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is an error that knows how it should be rendered over HTTP.
// Message is always safe to show to clients.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"-"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError, so errors.Is(err, &HTTPError{}) tells whether err is client-facing.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of e with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// New builds an HTTPError. An empty code is derived from the status text.
func New(status int, code, message string) *HTTPError {
	if code == "" {
		code = MakeUpperCaseWithUnderscores(http.StatusText(status))
	}
	return &HTTPError{Code: code, Message: message, Status: status}
}

func NewBadRequestError(message, code string, fields []FieldError) *HTTPError {
	e := New(http.StatusBadRequest, code, message)
	e.Errors = fields
	return e
}

func NewUnauthorizedError(message string) *HTTPError {
	return New(http.StatusUnauthorized, "", message)
}

func NewForbiddenError(message string) *HTTPError {
	return New(http.StatusForbidden, "", message)
}

func NewNotFoundError(message, code string) *HTTPError {
	return New(http.StatusNotFound, code, message)
}

func NewConflictError(message, code string) *HTTPError {
	return New(http.StatusConflict, code, message)
}

// NewBadGatewayError reports a failure of an upstream provider.
func NewBadGatewayError(message, code string) *HTTPError {
	return New(http.StatusBadGateway, code, message)
}

func NewServiceUnavailableError(message string) *HTTPError {
	return New(http.StatusServiceUnavailable, "", message)
}

// NewInternalServerError never carries the underlying cause.
func NewInternalServerError() *HTTPError {
	return New(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
}
