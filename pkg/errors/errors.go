package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"livecast/internal/core/domain"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeNotLive           ErrorCode = "NOT_LIVE"
	ErrCodeChatDisabled      ErrorCode = "CHAT_DISABLED"
	ErrCodeBusy              ErrorCode = "BUSY"
	ErrCodeRateLimit         ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// FromDomain maps a domain error to its API representation. The
// taxonomy is fixed: state-machine violations conflict, ban gates
// forbid, contention asks the caller to retry with backoff.
func FromDomain(err error) *AppError {
	switch {
	case stderrors.Is(err, domain.ErrLivestreamNotFound):
		return &AppError{Code: ErrCodeNotFound, Message: "livestream not found", HTTPStatus: http.StatusNotFound, Cause: err}
	case stderrors.Is(err, domain.ErrCommentNotFound):
		return &AppError{Code: ErrCodeNotFound, Message: "comment not found", HTTPStatus: http.StatusNotFound, Cause: err}
	case stderrors.Is(err, domain.ErrInvalidTransition):
		return &AppError{Code: ErrCodeInvalidTransition, Message: "invalid status transition", HTTPStatus: http.StatusConflict, Cause: err}
	case stderrors.Is(err, domain.ErrNotLive):
		return &AppError{Code: ErrCodeNotLive, Message: "livestream is not live", HTTPStatus: http.StatusConflict, Cause: err}
	case stderrors.Is(err, domain.ErrForbidden):
		return &AppError{Code: ErrCodeForbidden, Message: "identity is banned", HTTPStatus: http.StatusForbidden, Cause: err}
	case stderrors.Is(err, domain.ErrEmptyContent):
		return &AppError{Code: ErrCodeInvalidInput, Message: "comment content is empty", HTTPStatus: http.StatusBadRequest, Cause: err}
	case stderrors.Is(err, domain.ErrChatDisabled):
		return &AppError{Code: ErrCodeChatDisabled, Message: "chat is disabled", HTTPStatus: http.StatusForbidden, Cause: err}
	case stderrors.Is(err, domain.ErrBusy):
		return &AppError{Code: ErrCodeBusy, Message: "livestream is busy, retry with backoff", HTTPStatus: http.StatusTooManyRequests, Cause: err}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "internal error", HTTPStatus: http.StatusInternalServerError, Cause: err}
	}
}

// Common error constructors
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func NewRateLimitError() *AppError {
	return NewAppError(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}
