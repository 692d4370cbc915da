// Package chat provides the coach conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
)

// Error definitions for the chat view.
var (
	// ErrNoChatService indicates that no chat service was provided.
	ErrNoChatService = errors.New("chat service is required")

	// ErrNoSessionService indicates that no session service was provided.
	ErrNoSessionService = errors.New("session service is required")
)

// headerLines is the space used above and below the transcript.
const headerLines = 7

// View is a chat transcript with an input line.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	viewport  viewport.Model
	statusbar *status.Bar

	chatService    driving.ChatService
	sessionService driving.SessionService
	ctx            context.Context
	sessionName    string

	session *domain.Session
	// transcript is what the user sees. It also holds refusals and
	// trouble replies, which are not part of the session history.
	transcript []domain.ChatMessage
	pending    string
	thinking   bool
	err        error
	width      int
	height     int
	ready      bool
}

// NewView creates a chat view for the named session.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chatService driving.ChatService,
	sessionService driving.SessionService,
	sessionName string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if sessionName == "" {
		sessionName = domain.DefaultSessionName
	}

	return &View{
		styles:         s,
		keymap:         km,
		input:          input.NewPromptInput(s, "You:", "Ask the coach about training..."),
		viewport:       viewport.New(80, 24-headerLines),
		statusbar:      status.NewBar(s, km.ChatHelp()),
		chatService:    chatService,
		sessionService: sessionService,
		ctx:            context.Background(),
		sessionName:    sessionName,
		width:          80,
		height:         24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSessionName switches to another session on the next Init.
func (v *View) SetSessionName(name string) {
	if name != "" {
		v.sessionName = name
	}
}

// Init focuses the input and loads the session.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadSession())
}

func (v *View) loadSession() tea.Cmd {
	return func() tea.Msg {
		if v.sessionService == nil {
			return messages.SessionLoaded{Err: ErrNoSessionService}
		}
		s, err := v.sessionService.Open(v.ctx, v.sessionName)
		return messages.SessionLoaded{Session: s, Err: err}
	}
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SessionLoaded:
		v.handleSessionLoaded(msg)
		return v, nil

	case messages.ChatReplied:
		v.handleReply(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(msg.String(), v.keymap.NewChat):
		if v.thinking {
			return v, nil
		}
		return v, v.resetChat()

	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(msg.String(), v.keymap.Send):
		text := strings.TrimSpace(v.input.Value())
		if text == "" || v.thinking || v.session == nil {
			return v, nil
		}
		v.input.Reset()
		v.pending = text
		v.thinking = true
		v.statusbar.Set(status.StateThinking, "The coach is thinking...")
		v.refresh()
		return v, v.send(text)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// send runs the exchange on a copy of the session so the model is never
// mutated outside Update.
func (v *View) send(text string) tea.Cmd {
	session := cloneSession(v.session)
	return func() tea.Msg {
		if v.chatService == nil {
			return messages.ChatReplied{Err: ErrNoChatService}
		}
		reply, err := v.chatService.Send(v.ctx, session, text)
		if err != nil {
			return messages.ChatReplied{Reply: reply, Err: err}
		}
		if v.sessionService != nil {
			if err := v.sessionService.Save(v.ctx, session); err != nil {
				return messages.ChatReplied{Reply: reply, Session: session, Err: err}
			}
		}
		return messages.ChatReplied{Reply: reply, Session: session}
	}
}

func (v *View) resetChat() tea.Cmd {
	return func() tea.Msg {
		if v.sessionService == nil {
			return messages.SessionLoaded{Err: ErrNoSessionService}
		}
		if err := v.sessionService.ResetChat(v.ctx, v.sessionName); err != nil {
			return messages.SessionLoaded{Err: err}
		}
		s, err := v.sessionService.Open(v.ctx, v.sessionName)
		return messages.SessionLoaded{Session: s, Err: err}
	}
}

func (v *View) handleSessionLoaded(msg messages.SessionLoaded) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.session = msg.Session
	v.transcript = append([]domain.ChatMessage(nil), msg.Session.History...)
	v.err = nil
	v.statusbar.Clear()
	v.refresh()
}

func (v *View) handleReply(msg messages.ChatReplied) {
	user := v.pending
	v.pending = ""
	v.thinking = false

	switch {
	case errors.Is(msg.Err, domain.ErrOffTopic):
		v.appendTurn(user, msg.Reply)
		v.statusbar.Set(status.StateWarning, "Off topic")
	case errors.Is(msg.Err, domain.ErrUpstream):
		v.appendTurn(user, domain.TroubleReply)
		v.err = msg.Err
		v.statusbar.Set(status.StateError, "LLM request failed")
	case msg.Session != nil:
		v.session = msg.Session
		v.appendTurn(user, msg.Reply)
		if msg.Err != nil {
			v.setError(msg.Err)
		} else {
			v.err = nil
			v.statusbar.Clear()
		}
	default:
		v.setError(msg.Err)
	}
	v.refresh()
}

func (v *View) appendTurn(user, reply string) {
	v.transcript = append(v.transcript,
		domain.ChatMessage{Role: domain.RoleUser, Content: user},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: reply},
	)
}

func (v *View) setError(err error) {
	if err == nil {
		return
	}
	v.err = err
	v.statusbar.Set(status.StateError, err.Error())
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (v *View) refresh() {
	width := max(v.width-2, 20)
	lines := make([]string, 0, len(v.transcript)+2)
	for _, m := range v.transcript {
		lines = append(lines, v.renderTurn(m, width))
	}
	if v.pending != "" {
		lines = append(lines,
			v.renderTurn(domain.ChatMessage{Role: domain.RoleUser, Content: v.pending}, width),
			v.styles.Muted.Render("Coach is typing..."))
	}
	if len(lines) == 0 {
		lines = append(lines, v.styles.Muted.Render("Say hello to start the conversation."))
	}
	v.viewport.SetContent(strings.Join(lines, "\n\n"))
	v.viewport.GotoBottom()
}

func (v *View) renderTurn(m domain.ChatMessage, width int) string {
	label := v.styles.User.Render("You")
	if m.Role == domain.RoleAssistant {
		label = v.styles.Bot.Render("Coach")
	}
	return label + "\n" + v.styles.Normal.Width(width).Render(m.Content)
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("RockyBot: Coach"),
		"",
		v.viewport.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.viewport.Width = width
	v.viewport.Height = max(height-headerLines, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Transcript returns the displayed conversation.
func (v *View) Transcript() []domain.ChatMessage {
	return v.transcript
}

// Session returns the loaded session.
func (v *View) Session() *domain.Session {
	return v.session
}

// Thinking returns true while a message is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

func cloneSession(s *domain.Session) *domain.Session {
	c := *s
	c.History = append([]domain.ChatMessage(nil), s.History...)
	c.Goals = append([]domain.Goal(nil), s.Goals...)
	c.TrainingLog = append([]domain.TrainingEntry(nil), s.TrainingLog...)
	return &c
}
