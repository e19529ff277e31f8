package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a provider has no record for an identifier.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates that a provider rejected the request due to
	// rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrNetwork indicates a transport-level failure talking to a provider.
	ErrNetwork = errors.New("network error")

	// ErrTimeout indicates that a provider call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrMalformed indicates that a provider returned a response the client
	// could not interpret, or was handed an identifier it cannot resolve.
	ErrMalformed = errors.New("malformed")

	// ErrProviderUnavailable indicates a systemic provider outage: the
	// scheme's circuit breaker is open and calls are being skipped until
	// the cooldown elapses.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNoProvider indicates that no provider is registered or enabled for
	// a reference's scheme.
	ErrNoProvider = errors.New("no provider for scheme")
)

// FailureKind classifies a per-reference resolution failure.
type FailureKind string

// Failure kinds surfaced to hosts.
const (
	FailureNotFound            FailureKind = "not_found"
	FailureRateLimited         FailureKind = "rate_limited"
	FailureNetwork             FailureKind = "network_error"
	FailureTimeout             FailureKind = "timeout"
	FailureMalformed           FailureKind = "malformed"
	FailureProviderUnavailable FailureKind = "provider_unavailable"
	FailureNoProvider          FailureKind = "no_provider"
)

// ResolutionFailure is the failure marker stored in place of metadata when a
// reference could not be resolved. Failures are local to the reference they
// concern and never abort batch resolution.
type ResolutionFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// Error implements the error interface.
func (f *ResolutionFailure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the sentinel matching the failure kind, for errors.Is.
func (f *ResolutionFailure) Unwrap() error {
	switch f.Kind {
	case FailureNotFound:
		return ErrNotFound
	case FailureRateLimited:
		return ErrRateLimited
	case FailureNetwork:
		return ErrNetwork
	case FailureTimeout:
		return ErrTimeout
	case FailureMalformed:
		return ErrMalformed
	case FailureProviderUnavailable:
		return ErrProviderUnavailable
	case FailureNoProvider:
		return ErrNoProvider
	}
	return nil
}

// Transient reports whether retrying sooner than the positive-result TTL is
// worthwhile. Not-found results are considered stable; everything else may
// clear on its own.
func (f *ResolutionFailure) Transient() bool {
	return f.Kind != FailureNotFound
}

// ClassifyFailure maps a provider error to a ResolutionFailure marker.
// Unrecognized errors classify as network failures, the conservative
// transient default.
func ClassifyFailure(err error) *ResolutionFailure {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return &ResolutionFailure{Kind: FailureNotFound, Message: err.Error()}
	case errors.Is(err, ErrRateLimited):
		return &ResolutionFailure{Kind: FailureRateLimited, Message: err.Error()}
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return &ResolutionFailure{Kind: FailureTimeout, Message: err.Error()}
	case errors.Is(err, ErrMalformed):
		return &ResolutionFailure{Kind: FailureMalformed, Message: err.Error()}
	case errors.Is(err, ErrProviderUnavailable):
		return &ResolutionFailure{Kind: FailureProviderUnavailable, Message: err.Error()}
	case errors.Is(err, ErrNoProvider):
		return &ResolutionFailure{Kind: FailureNoProvider, Message: err.Error()}
	default:
		return &ResolutionFailure{Kind: FailureNetwork, Message: err.Error()}
	}
}

// NotFoundError provides details about an identifier a provider has no
// record for.
type NotFoundError struct {
	Scheme Scheme
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s reference not found: %s", e.Scheme, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RateLimitError provides details about a rate limit rejection.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ExternalAPIError provides details about an external provider API error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(scheme Scheme, id string) *NotFoundError {
	return &NotFoundError{Scheme: scheme, ID: id}
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Source: source, RetryAfter: retryAfter}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
