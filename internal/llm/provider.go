// Package llm defines the minimal generation contract the question
// pipeline needs from a language model provider.
package llm

import (
	"context"
	"errors"
)

// ErrModelNotFound indicates the configured model does not exist on the
// provider side. Callers surface this with configuration guidance instead
// of a generic failure message.
var ErrModelNotFound = errors.New("model not found")

// Provider is the interface all LLM backends must implement. Both
// pipeline stages (text-to-SQL and result-to-text) issue exactly one
// GenerateText call per invocation.
type Provider interface {
	// GenerateText sends a single prompt and returns the model's text.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g., "anthropic")
	Name() string
}
