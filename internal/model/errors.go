// Package model defines core domain types for the FFS provisionee.
package model

import "errors"

// Domain errors.
var (
	// ErrNotImplemented indicates an optional capability is absent.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnderrun indicates a stream read past the available data.
	ErrUnderrun = errors.New("stream underrun")

	// ErrOverrun indicates a stream write past the available space.
	ErrOverrun = errors.New("stream overrun")

	// ErrInvalidArgument indicates a caller-supplied argument was rejected.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSignatureInvalid indicates a DSS response signature failed verification.
	ErrSignatureInvalid = errors.New("response signature invalid")

	// ErrSignatureMissing indicates a DSS response body arrived without a signature header.
	ErrSignatureMissing = errors.New("response signature missing")

	// ErrDuplicateHeader indicates a response carried two copies of a single-valued header.
	ErrDuplicateHeader = errors.New("duplicate response header")

	// ErrTooManyRedirects indicates the DSS redirect cap was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrMissingStatus indicates the transport returned no status code.
	ErrMissingStatus = errors.New("missing status code")

	// ErrSessionTerminated indicates the cloud answered canProceed=false.
	ErrSessionTerminated = errors.New("session terminated by service")

	// ErrConnectionFailed indicates every Wi-Fi association attempt failed.
	ErrConnectionFailed = errors.New("failed to connect to network")

	// ErrTimeout indicates the operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrNoCredentials indicates the cloud returned no usable Wi-Fi credentials.
	ErrNoCredentials = errors.New("no credentials returned")
)

// ResultFromError collapses an error into a Result value at a subsystem
// boundary. A nil error maps to ResultSuccess.
func ResultFromError(err error) Result {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrNotImplemented):
		return ResultNotImplemented
	case errors.Is(err, ErrUnderrun):
		return ResultUnderrun
	case errors.Is(err, ErrOverrun):
		return ResultOverrun
	case errors.Is(err, ErrInvalidArgument):
		return ResultInvalidArgument
	default:
		return ResultError
	}
}
