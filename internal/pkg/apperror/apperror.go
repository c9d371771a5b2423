package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeCapacityExceeded   = "CAPACITY_EXCEEDED"
	CodeSessionClosed      = "SESSION_CLOSED"
	CodeSessionBusy        = "SESSION_BUSY"
	CodeUpstreamGeneration = "UPSTREAM_GENERATION_FAILURE"
	CodeInvalidMode        = "INVALID_MODE"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// AppError is a domain failure with a stable machine-readable code.
type AppError struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) Wrap(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

func New(code string, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

var (
	ErrNotFound         = New(CodeNotFound, http.StatusNotFound, "resource not found")
	ErrForbidden        = New(CodeForbidden, http.StatusForbidden, "you do not have access to this resource")
	ErrCapacityExceeded = New(CodeCapacityExceeded, http.StatusConflict, "maximum number of active sessions reached")
	ErrSessionClosed    = New(CodeSessionClosed, http.StatusConflict, "session is closed")
	ErrSessionBusy      = New(CodeSessionBusy, http.StatusConflict, "session is already generating a response")
	ErrUpstream         = New(CodeUpstreamGeneration, http.StatusBadGateway, "response generation failed")
	ErrInvalidMode      = New(CodeInvalidMode, http.StatusUnprocessableEntity, "invalid session mode")
	ErrValidation       = New(CodeValidation, http.StatusUnprocessableEntity, "validation failed")
	ErrUnauthorized     = New(CodeUnauthorized, http.StatusUnauthorized, "authentication required")
	ErrInternal         = New(CodeInternal, http.StatusInternalServerError, "internal server error")
)

func NotFound(resource string) *AppError {
	e := *ErrNotFound
	e.Message = fmt.Sprintf("%s not found", resource)
	return &e
}

func Validation(message string, details map[string]interface{}) *AppError {
	e := *ErrValidation
	e.Message = message
	e.Details = details
	return &e
}

func CapacityExceeded(limit int, active int64) *AppError {
	return ErrCapacityExceeded.WithDetails(map[string]interface{}{
		"limit":  limit,
		"active": active,
		"hint":   "close an existing session before starting a new one",
	})
}

// From converts any error into an AppError, mapping unknown errors to
// INTERNAL_SERVER_ERROR.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.Wrap(err)
}

// CodeOf returns the stable code for err.
func CodeOf(err error) string {
	return From(err).Code
}
