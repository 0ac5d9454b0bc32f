// Package llm — provider error classification.
// Every transport failure from an adapter is wrapped in a ProviderError so
// callers can branch on the failure kind without inspecting HTTP details.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the coarse failure category for a provider call.
type ErrorKind string

const (
	ErrRateLimited ErrorKind = "rate_limited"
	ErrTimeout     ErrorKind = "timeout"
	ErrUnavailable ErrorKind = "unavailable"
	ErrUnknown     ErrorKind = "unknown"
)

// ProviderError wraps a failed provider call with its classified kind.
type ProviderError struct {
	Provider string    // "openrouter", "tavily", ...
	Op       string    // "chat", "embed", "healthcheck"
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classifyStatus maps an HTTP status code to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		return ErrTimeout
	case status >= 500:
		return ErrUnavailable
	default:
		return ErrUnknown
	}
}

// classifyErr maps a transport error (no HTTP response) to an ErrorKind.
func classifyErr(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrUnknown
	}
	return ErrUnavailable
}

// KindOf returns the ErrorKind of err, or ErrUnknown if err is not a
// ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrUnknown
}

// IsRateLimited reports whether err is a rate-limited provider error.
func IsRateLimited(err error) bool { return KindOf(err) == ErrRateLimited }

// IsTimeout reports whether err is a timeout provider error.
func IsTimeout(err error) bool { return KindOf(err) == ErrTimeout }
