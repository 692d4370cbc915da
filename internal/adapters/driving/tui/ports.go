// Package tui provides an interactive terminal user interface for rockybot.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions from the index.
	Answer driving.AnswerService

	// Chat talks to the coach.
	Chat driving.ChatService

	// Session loads and saves chat sessions and goals.
	Session driving.SessionService

	// Settings is optional. When set, the help view shows the active models.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
