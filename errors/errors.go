package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested session was not found
	ErrNotFound = errors.New("session not found")

	// ErrSessionClosed indicates that the session has reached a terminal state
	ErrSessionClosed = errors.New("session is closed")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// ProviderErrorKind classifies a failed backend call.
type ProviderErrorKind string

const (
	KindAuthFailure     ProviderErrorKind = "auth_failure"
	KindRateLimited     ProviderErrorKind = "rate_limited"
	KindTimeout         ProviderErrorKind = "timeout"
	KindInvalidResponse ProviderErrorKind = "invalid_response"
	KindUnknown         ProviderErrorKind = "unknown"
)

// ProviderError describes a single failed call to a model backend. It is
// recorded on the transcript as an error turn and never escalates to a
// session-level fault.
type ProviderError struct {
	Kind     ProviderErrorKind
	Provider string
	Detail   string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Detail)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the orchestrator may retry the call. Only rate
// limits and timeouts are transient; auth and schema failures repeat
// identically on every attempt.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTimeout
}

// NewProviderError creates a ProviderError for the given backend.
func NewProviderError(kind ProviderErrorKind, provider, detail string) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Detail: detail}
}

// WithCause attaches the underlying SDK error.
func (e *ProviderError) WithCause(cause error) *ProviderError {
	e.Cause = cause
	return e
}

// AsProviderError extracts a ProviderError from an error chain. Errors that
// are not ProviderErrors are wrapped as KindUnknown so that every failed
// call has a classification.
func AsProviderError(err error, provider string) *ProviderError {
	if err == nil {
		return nil
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &ProviderError{Kind: KindUnknown, Provider: provider, Detail: err.Error(), Cause: err}
}

// ConfigurationError rejects a session before anything is launched.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: field %q: %s", e.Field, e.Message)
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var cerr *ConfigurationError
	return errors.As(err, &cerr)
}

// OrderingViolation reports a transcript append with a non-monotonic index.
// It is fatal to the orchestrator run that triggers it.
type OrderingViolation struct {
	Want int
	Got  int
}

func (e *OrderingViolation) Error() string {
	return fmt.Sprintf("transcript ordering violation: want index %d, got %d", e.Want, e.Got)
}
