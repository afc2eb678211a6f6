// Package errors provides the structured error type used across eventhub.
// Every failure that crosses the HTTP boundary is an *AppError carrying a
// machine-readable code, an HTTP status and a retryable hint, rendered to
// clients as an RFC 7807 style body.
package errors
