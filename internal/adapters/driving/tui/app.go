package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/views/goals"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView  *menu.View
	askView   *ask.View
	chatView  *chat.View
	goalsView *goals.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		menuView:    menu.NewView(s),
		askView:     ask.NewView(s, km, ports.Answer),
		chatView:    chat.NewView(s, km, ports.Chat, ports.Session, ""),
		goalsView:   goals.NewView(s, km, ports.Session, ""),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.chatView.WithContext(ctx)
	a.goalsView.WithContext(ctx)
	return a
}

// WithSession selects the session used by the chat and goals views.
func (a *App) WithSession(name string) *App {
	a.chatView.SetSessionName(name)
	a.goalsView.SetSessionName(name)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("RockyBot"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.AnswerCompleted:
		a.err = msg.Err
		return a, a.forwardTo(messages.ViewAsk, msg)

	case messages.SessionLoaded, messages.ChatReplied:
		return a, a.forwardTo(messages.ViewChat, msg)

	case messages.GoalsLoaded:
		return a, a.forwardTo(messages.ViewGoals, msg)

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forwardTo(a.currentView, msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forwardTo(a.currentView, msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keymap.Matches(msg.String(), a.keymap.Quit) {
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(msg.String(), a.keymap.Back) {
			a.currentView = messages.ViewMenu
		}
		return a, nil
	case messages.ViewMenu:
		if keymap.Matches(msg.String(), a.keymap.Help) {
			a.currentView = messages.ViewHelp
			return a, nil
		}
	}
	return a, a.forwardTo(a.currentView, msg)
}

// forwardTo delivers msg to the given view.
func (a *App) forwardTo(view messages.ViewType, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch view {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewGoals:
		a.goalsView, cmd = a.goalsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewAsk:
		return a.askView.Init()
	case messages.ViewChat:
		return a.chatView.Init()
	case messages.ViewGoals:
		return a.goalsView.Init()
	case messages.ViewMenu, messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewGoals:
		return a.goalsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

// viewHelp renders the keybindings and, when settings are available, the
// active models.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}

	if a.ports.Settings != nil {
		if settings, err := a.ports.Settings.Get(); err == nil {
			b.WriteString(a.styles.Subtitle.Render("Models"))
			b.WriteString("\n")
			fmt.Fprintf(&b, "  Embedding: %s (%s)\n", settings.Embedding.Model, settings.Embedding.Provider)
			fmt.Fprintf(&b, "  LLM:       %s (%s)\n", settings.LLM.Model, settings.LLM.Provider)
			fmt.Fprintf(&b, "  Index:     %s\n\n", settings.Index.Path)
		}
	}

	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.goalsView.SetDimensions(width, height)
}
