// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the menu.
	Back key.Binding

	// Send submits the input.
	Send key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Focus moves between the input and the list below it.
	Focus key.Binding

	// Add starts a new goal.
	Add key.Binding

	// Toggle completes the selected goal.
	Toggle key.Binding

	// NewChat clears the conversation.
	NewChat key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "sources"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add goal"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "done"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Back, k.Quit}
}

// AskHelp returns keybindings for the ask view.
func (k *KeyMap) AskHelp() []key.Binding {
	return []key.Binding{k.Send, k.Focus, k.Back}
}

// ChatHelp returns keybindings for the chat view.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewChat, k.Back}
}

// GoalsHelp returns keybindings for the goals view.
func (k *KeyMap) GoalsHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Focus},
		{k.Send, k.Back, k.NewChat},
		{k.Add, k.Toggle},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
