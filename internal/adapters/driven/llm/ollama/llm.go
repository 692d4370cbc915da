// Package ollama provides an LLM adapter for a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/rockybot/internal/adapters/driven/ai/transport"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama LLM service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService generates text with Ollama.
type LLMService struct {
	client *transport.Client
	model  string
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &LLMService{
		client: transport.New("ollama", cfg.BaseURL, cfg.Timeout, nil),
		model:  cfg.Model,
	}
}

func newOptions(maxTokens int, temperature float64, stop []string) *options {
	if maxTokens <= 0 && temperature <= 0 && len(stop) == 0 {
		return nil
	}
	return &options{NumPredict: maxTokens, Temperature: temperature, Stop: stop}
}

// Generate produces a completion for prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: newOptions(opts.MaxTokens, opts.Temperature, opts.StopWords),
	}
	var resp generateResponse
	if err := s.client.PostJSON(ctx, "/api/generate", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return resp.Response, nil
}

// Chat continues a conversation.
func (s *LLMService) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(messages)),
		Options:  newOptions(opts.MaxTokens, opts.Temperature, nil),
	}
	for i, m := range messages {
		req.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	var resp chatResponse
	if err := s.client.PostJSON(ctx, "/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return resp.Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, "/api/tags"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
