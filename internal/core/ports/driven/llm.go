package driven

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// LLMService provides language model operations.
//
// Errors are reported wrapped in domain.ErrUpstream.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible APIs such as Groq
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
