// Package nlp provides clients for the language-model oracle used for
// entity extraction, query generation, and result formatting.
package nlp

import (
	"context"

	"github.com/inklore/inklore/pkg/types"
)

// Client defines the interface for language model operations.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// Close cleans up any resources.
	Close() error
}

// Config holds configuration for LLM clients.
type Config struct {
	// Model is the specific model to use for completions.
	Model string `json:"model,omitempty"`

	// Temperature controls randomness in generation (0.0 to 2.0).
	// Extraction and query generation run near-deterministic (0.1).
	Temperature *float32 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// BaseURL is a custom base URL for OpenAI-compatible services.
	BaseURL string `json:"base_url,omitempty"`
}
