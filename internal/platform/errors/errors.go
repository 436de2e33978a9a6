// Package errors carries typed errors across the HTTP boundary and maps
// domain sentinels onto status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

type ErrorType string

const (
	TypeValidation ErrorType = "validation"   // 400
	TypeNotFound   ErrorType = "not_found"    // 404
	TypeConflict   ErrorType = "conflict"     // 409
	TypeTooMany    ErrorType = "rate_limited" // 429
	TypeInternal   ErrorType = "internal"     // 500
	TypeExternal   ErrorType = "external"     // 502
)

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeTooMany:
		return http.StatusTooManyRequests
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error { return newError(TypeValidation, message, nil) }
func NotFoundError(message string) *Error   { return newError(TypeNotFound, message, nil) }
func ConflictError(message string) *Error   { return newError(TypeConflict, message, nil) }
func TooManyError(message string) *Error    { return newError(TypeTooMany, message, nil) }

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithContext adds a field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError converts any error into a structured Error. Known domain
// sentinels get their own type; anything else is internal.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	switch {
	case errors.Is(err, domain.ErrSessionAlreadyActive):
		return newError(TypeConflict, "a session or watch is already active", err)
	case errors.Is(err, domain.ErrStaleRequest):
		return newError(TypeConflict, "superseded by a newer request", err)
	case errors.Is(err, domain.ErrNoActiveSession):
		return newError(TypeNotFound, "no active session", err)
	case errors.Is(err, domain.ErrSlotNotFound):
		return newError(TypeNotFound, "free slot not found", err)
	case errors.Is(err, domain.ErrIntervalNotFound):
		return newError(TypeNotFound, "busy interval not found", err)
	case errors.Is(err, domain.ErrInvalidTask), errors.Is(err, domain.ErrInvalidInterval):
		return newError(TypeValidation, err.Error(), err)
	}

	return InternalError("internal server error", err)
}
