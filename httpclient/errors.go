package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies stream client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the connection attempt timed out.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeNotFound indicates there is no stream at the URL.
	ErrCodeNotFound
	// ErrCodeRateLimit indicates the server asked the client to slow down.
	ErrCodeRateLimit
	// ErrCodeClient indicates any other 4xx response.
	ErrCodeClient
	// ErrCodeServer indicates a 5xx response.
	ErrCodeServer
	// ErrCodeNotStream indicates a 2xx response that is not an event stream.
	ErrCodeNotStream
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeClient:
		return "client"
	case ErrCodeServer:
		return "server"
	case ErrCodeNotStream:
		return "not_stream"
	default:
		return "unknown"
	}
}

// Error is a classified stream client error.
type Error struct {
	// StatusCode is the HTTP status, 0 for connection-level errors.
	StatusCode int
	Code       ErrorCode
	Message    string
	// Retryable reports whether reconnecting may succeed.
	Retryable bool
	// Body holds the start of an error response body.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTimeoutError wraps a connect timeout.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError wraps a transport failure.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// ClassifyStatusCode converts a non-2xx status into an *Error. It returns
// nil for 2xx.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode, Message: http.StatusText(statusCode), Body: body}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeClient
	default:
		e.Code, e.Retryable = ErrCodeServer, statusCode >= 500
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", statusCode)
	}
	return e
}

// IsRetryable reports whether err is an *Error worth reconnecting after.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}
