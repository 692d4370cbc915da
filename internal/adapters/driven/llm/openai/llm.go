// Package openai provides an LLM adapter for the OpenAI chat completions API.
//
// Any OpenAI-compatible server works by changing the base URL; Groq is
// served this way from https://api.groq.com/openai/v1.
package openai

import (
	"context"
	"errors"
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
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI LLM service.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Service names the provider in errors and logs (default: openai).
	Service string
}

// LLMService generates text through /chat/completions.
type LLMService struct {
	client  *transport.Client
	model   string
	service string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatCompletionMsg `json:"message"`
		FinishReason string            `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.Service == "" {
		cfg.Service = "openai"
	}
	if cfg.APIKey == "" {
		return nil, errors.New(cfg.Service + ": API key is required")
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
		client: transport.New(cfg.Service, cfg.BaseURL, cfg.Timeout, map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		}),
		model:   cfg.Model,
		service: cfg.Service,
	}, nil
}

// Generate sends prompt as a single user message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.complete(ctx, chatCompletionRequest{
		Model:       s.model,
		Messages:    []chatCompletionMsg{{Role: string(domain.RoleUser), Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	})
}

// Chat continues a conversation.
func (s *LLMService) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatCompletionRequest{
		Model:       s.model,
		Messages:    make([]chatCompletionMsg, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	for i, m := range messages {
		req.Messages[i] = chatCompletionMsg{Role: string(m.Role), Content: m.Content}
	}
	return s.complete(ctx, req)
}

func (s *LLMService) complete(ctx context.Context, req chatCompletionRequest) (string, error) {
	var resp chatCompletionResponse
	if err := s.client.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", domain.ErrUpstream, s.service)
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which costs no tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, "/models"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
