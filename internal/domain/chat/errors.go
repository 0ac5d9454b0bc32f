package chat

import (
	"errors"
	"fmt"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// ErrInvalidHistory reports malformed caller-supplied history: unrecognized
// roles or turns out of chronological order. Surfaced, never repaired.
var ErrInvalidHistory = errors.New("invalid conversation history")

// RateLimitedError reports throttling by a named upstream provider
// ("completion", "embedding", "search"). Surfaced to the caller; the
// pipeline does not retry internally.
type RateLimitedError struct {
	Provider string
	Err      error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by %s provider: %v", e.Provider, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// UpstreamTimeoutError reports a timed-out call to a named upstream provider.
type UpstreamTimeoutError struct {
	Provider string
	Err      error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("timeout calling %s provider: %v", e.Provider, e.Err)
}

func (e *UpstreamTimeoutError) Unwrap() error { return e.Err }

// WrapProviderErr lifts a classified llm error into the pipeline's error
// taxonomy under the given provider label. Errors of other kinds pass
// through unchanged so their classification stays inspectable.
func WrapProviderErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	switch llm.KindOf(err) {
	case llm.ErrRateLimited:
		return &RateLimitedError{Provider: provider, Err: err}
	case llm.ErrTimeout:
		return &UpstreamTimeoutError{Provider: provider, Err: err}
	}
	return err
}
