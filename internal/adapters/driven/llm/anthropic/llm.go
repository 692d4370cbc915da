// Package anthropic provides an LLM adapter for the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/rockybot/internal/adapters/driven/ai/transport"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService generates text through /v1/messages.
type LLMService struct {
	client *transport.Client
	model  string
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
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
		client: transport.New("anthropic", cfg.BaseURL, cfg.Timeout, map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": anthropicVersion,
		}),
		model: cfg.Model,
	}, nil
}

// Generate sends prompt as a single user message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.send(ctx, messagesRequest{
		Model:       s.model,
		Messages:    []messagesMessage{{Role: string(domain.RoleUser), Content: prompt}},
		MaxTokens:   maxTokens(opts.MaxTokens),
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
	})
}

// Chat continues a conversation. System messages are moved to the
// request's system field, which is where the API expects them.
func (s *LLMService) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := messagesRequest{
		Model:       s.model,
		MaxTokens:   maxTokens(opts.MaxTokens),
		Temperature: opts.Temperature,
	}
	var system []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, messagesMessage{Role: string(m.Role), Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")
	return s.send(ctx, req)
}

func (s *LLMService) send(ctx context.Context, req messagesRequest) (string, error) {
	var resp messagesResponse
	if err := s.client.PostJSON(ctx, "/v1/messages", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	if result.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic returned no text content", domain.ErrUpstream)
	}
	return result.String(), nil
}

func maxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which costs no tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, "/v1/models"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
