// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk asks questions against the index.
	ViewAsk
	// ViewChat is the coach conversation.
	ViewChat
	// ViewGoals lists today's goals.
	ViewGoals
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewChat:
		return "chat"
	case ViewGoals:
		return "goals"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// AnswerCompleted carries the answer to a question.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// SessionLoaded carries the chat session.
type SessionLoaded struct {
	Session *domain.Session
	Err     error
}

// ChatReplied carries the coach's reply. Session is the updated session
// when the exchange was recorded.
type ChatReplied struct {
	Reply   string
	Session *domain.Session
	Err     error
}

// GoalsLoaded carries today's goals.
type GoalsLoaded struct {
	Goals []domain.Goal
	Err   error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
