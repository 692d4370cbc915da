package tui

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("tui: answer service is required")

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("tui: chat service is required")

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("tui: session service is required")

// ErrInvalidPorts is returned when no ports are given.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
