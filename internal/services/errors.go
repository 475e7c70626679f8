package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories the services return.
// Handlers map kinds to HTTP statuses; nothing below the API layer ever
// sees a raw driver error.
type ErrorKind string

const (
	ErrValidation      ErrorKind = "VALIDATION_ERROR"
	ErrNotFound        ErrorKind = "NOT_FOUND"
	ErrAlreadyExists   ErrorKind = "ALREADY_EXISTS"
	ErrPermission      ErrorKind = "PERMISSION_DENIED"
	ErrDatabase        ErrorKind = "DATABASE_ERROR"
	ErrConstraint      ErrorKind = "CONSTRAINT_ERROR"
	ErrInvalidToken    ErrorKind = "INVALID_TOKEN"
	ErrTokenExpired    ErrorKind = "TOKEN_EXPIRED"
	ErrAlreadyComplete ErrorKind = "ALREADY_COMPLETE"
	ErrInvalidState    ErrorKind = "POLICY_INVALID_STATE"
	ErrPaymentFailed   ErrorKind = "PAYMENT_FAILED"
	ErrInternal        ErrorKind = "INTERNAL_ERROR"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case ErrValidation, ErrConstraint:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrAlreadyExists, ErrInvalidState, ErrAlreadyComplete:
		return http.StatusConflict
	case ErrPermission:
		return http.StatusForbidden
	case ErrInvalidToken, ErrTokenExpired:
		return http.StatusUnauthorized
	case ErrPaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func NewError(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...any) *AppError {
	return NewError(ErrValidation, format, args...)
}

func NotFoundError(entity, id string) *AppError {
	return NewError(ErrNotFound, "%s %s not found", entity, id)
}

func InvalidStateError(format string, args ...any) *AppError {
	return NewError(ErrInvalidState, format, args...)
}

// WrapDatabase classifies a failure that crossed a transaction boundary.
// The driver error stays attached as the wrapped cause but is never
// surfaced to clients.
func WrapDatabase(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: ErrDatabase, Message: "database operation failed", Err: err}
}

// KindOf extracts the kind from any error, defaulting to INTERNAL_ERROR.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}
