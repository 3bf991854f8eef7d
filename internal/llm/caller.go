// Package llm defines the model-call collaborator contract used by
// the agent pipeline, plus an OpenAI-backed implementation. A caller
// is opaque beyond text-in/text-out: the engine neither retries nor
// inspects provider responses.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request carries everything a single model call needs. The
// credential travels as an explicit parameter and is never stored in
// process-wide state.
type Request struct {
	Credential   string
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Caller is the external text-completion service. Implementations own
// transport concerns, including timeouts; a timed-out call surfaces
// as a ProviderError like any other failure.
type Caller interface {
	Call(ctx context.Context, req Request) (string, error)
}

// ProviderError marks a transport, auth or quota failure of the
// remote model provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
