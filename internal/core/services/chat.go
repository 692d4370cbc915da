package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ensure ChatService implements the interfaces.
var (
	_ driving.ChatService     = (*ChatService)(nil)
	_ driven.PromptStoreAware = (*ChatService)(nil)
)

// ChatService answers on-topic chat messages with the LLM.
type ChatService struct {
	llm     driven.LLMService
	guard   *domain.TopicGuard
	prompts driven.PromptStore
}

// NewChatService creates a chat service. A nil guard accepts every message.
func NewChatService(llm driven.LLMService, guard *domain.TopicGuard) *ChatService {
	if guard == nil {
		guard = domain.NewTopicGuard(nil, "")
	}
	return &ChatService{llm: llm, guard: guard}
}

// SetPromptStore sets the store the system prompt is loaded from.
// Without one, no system message is sent.
func (s *ChatService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Send answers message within session. The session history only grows when
// the LLM replies.
func (s *ChatService) Send(ctx context.Context, session *domain.Session, message string) (string, error) {
	if session == nil {
		return "", fmt.Errorf("%w: session is nil", domain.ErrInvalidInput)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message cannot be empty", domain.ErrInvalidInput)
	}

	if !s.guard.Allows(message) {
		logger.Debug("Refusing off-topic message")
		return s.guard.Refusal(), domain.ErrOffTopic
	}
	if s.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, domain.ErrLLMUnavailable)
	}

	messages := make([]domain.ChatMessage, 0, len(session.History)+2)
	if system := s.systemPrompt(); system != "" {
		messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: system})
	}
	messages = append(messages, session.History...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: message})

	logger.Debug("Chat: sending %d messages", len(messages))
	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		return "", err
	}

	reply = strings.TrimSpace(reply)
	session.AppendExchange(message, reply)
	return reply, nil
}

func (s *ChatService) systemPrompt() string {
	if s.prompts == nil {
		return ""
	}
	prompt, err := s.prompts.Load(driven.PromptChatSystem)
	if err != nil {
		logger.Warn("No chat system prompt: %v", err)
		return ""
	}
	return prompt
}
