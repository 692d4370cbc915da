// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateWarning  State = "warning"
	StateDone     State = "done"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	bindings []key.Binding
	state    State
	message  string
	width    int
}

// NewBar creates a status bar showing bindings on the right. Nil bindings
// fall back to the short help of the default keymap.
func NewBar(s *styles.Styles, bindings []key.Binding) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if bindings == nil {
		bindings = keymap.DefaultKeyMap().ShortHelp()
	}

	return &Bar{
		styles:   s,
		bindings: bindings,
		state:    StateReady,
		width:    80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	// StatusBar pads one column on each side.
	padding := b.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateThinking:
		if b.message != "" {
			return b.styles.Muted.Render(b.message)
		}
		return b.styles.Muted.Render("Thinking...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render(fmt.Sprintf("Error: %s", b.message))
		}
		return b.styles.Error.Render("Error")
	case StateWarning:
		return b.styles.Warning.Render(b.message)
	case StateDone:
		return b.styles.Success.Render(b.message)
	case StateReady:
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) renderRight() string {
	hints := make([]string, 0, len(b.bindings))
	for _, binding := range b.bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// Set sets the state and message together.
func (b *Bar) Set(state State, message string) {
	b.state = state
	b.message = message
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Clear resets the status bar to the ready state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
}
