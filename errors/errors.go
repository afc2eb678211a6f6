package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is an error that knows how it should be reported to an HTTP
// client: a stable code, a safe message, a status and optional details.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	// Cause is logged but never sent to clients.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one client-visible detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError; retryability follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// ServiceUnavailable reports that service (the hub, the command runner) is
// not accepting work right now.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable,
		fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		http.StatusServiceUnavailable).
		WithDetail("service", service)
}

// Timeout reports that operation ran past its deadline.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The request took too long. Please try again.", http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

// RateLimited reports that the caller must wait retryAfter before trying
// again.
func RateLimited(retryAfter time.Duration) *AppError {
	return New(ErrCodeRateLimited, "Rate limit exceeded. Please slow down.", http.StatusTooManyRequests).
		WithDetail("retry_after_seconds", int(retryAfter.Seconds())+1)
}

// InvalidInput reports a malformed request. field may be empty.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "Invalid input: "+reason, http.StatusBadRequest)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports failed validation rules; message lists them.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.",
		http.StatusInternalServerError).
		WithCause(cause)
}

// CommandFailed reports an external command that did not produce an event.
// kind is one of "launch", "exit" or "decode".
func CommandFailed(command, kind string, cause error) *AppError {
	return New(ErrCodeCommandFailed, fmt.Sprintf("Command %s failed (%s).", command, kind), http.StatusBadGateway).
		WithDetail("command", command).
		WithDetail("kind", kind).
		WithCause(cause)
}

// Wrap returns the AppError found in err's chain, or an Internal error
// around err. It returns nil for nil.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
