// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool // If true, selecting this item quits the app
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		items: []Item{
			{Label: "Ask the news", Hint: "questions answered from ingested articles", View: messages.ViewAsk},
			{Label: "Chat with the coach", Hint: "martial arts conversation", View: messages.ViewChat},
			{Label: "Today's goals", Hint: "daily training goals", View: messages.ViewGoals},
			{Label: "Help", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		selected: 0,
		width:    80,
		height:   24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k", "shift+tab":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j", "tab":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}

		case "q":
			return v, tea.Quit

		case "1", "2", "3":
			idx := int(msg.String()[0] - '1')
			v.selected = idx
			item := v.items[idx]
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	// Title
	title := v.styles.Title.Render("RockyBot")
	b.WriteString(title)
	b.WriteString("\n\n")

	// Subtitle
	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("News research and martial arts coaching")
	b.WriteString(subtitle)
	b.WriteString("\n\n")

	// Menu items
	for i, item := range v.items {
		cursor := "  "
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

		if i == v.selected {
			cursor = "> "
			style = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")).
				Bold(true)
		}

		line := cursor + style.Render(item.Label)
		if item.Hint != "" && i == v.selected {
			line += v.styles.Muted.Render("  " + item.Hint)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	// Footer with keybindings
	b.WriteString("\n")
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("[j/k] Navigate  [1-3] Jump  [Enter] Select  [q] Quit")
	b.WriteString(footer)

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
