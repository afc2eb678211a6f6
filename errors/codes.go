package errors

// ErrorCode is the machine-readable code sent in error responses.
type ErrorCode string

const (
	// ErrCodeServiceUnavailable: the hub is closed or the command guard is
	// rejecting work.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeCommandFailed: the external command could not be launched,
	// exited unsuccessfully or printed undecodable output.
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"
)

// IsRetryableCode reports whether a request that failed with code may
// succeed when repeated unchanged.
func IsRetryableCode(code ErrorCode) bool {
	switch code {
	case ErrCodeServiceUnavailable, ErrCodeTimeout, ErrCodeRateLimited, ErrCodeCommandFailed:
		return true
	}
	return false
}
