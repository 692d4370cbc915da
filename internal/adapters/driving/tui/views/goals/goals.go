// Package goals provides the daily goals view for the TUI.
package goals

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// ErrNoSessionService indicates that no session service was provided.
var ErrNoSessionService = errors.New("session service is required")

// View lists today's goals and lets the user add and complete them.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	statusbar *status.Bar

	sessionService driving.SessionService
	ctx            context.Context
	sessionName    string

	goals    []domain.Goal
	selected int
	adding   bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewView creates a goals view for the named session.
func NewView(s *styles.Styles, km *keymap.KeyMap, sessionService driving.SessionService, sessionName string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if sessionName == "" {
		sessionName = domain.DefaultSessionName
	}

	in := input.NewPromptInput(s, "New goal:", "e.g. 100 front kicks")
	in.Blur()

	return &View{
		styles:         s,
		keymap:         km,
		input:          in,
		statusbar:      status.NewBar(s, km.GoalsHelp()),
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

// Init loads today's goals.
func (v *View) Init() tea.Cmd {
	return v.run(nil)
}

// run applies fn, if any, then reloads the goals.
func (v *View) run(fn func(driving.SessionService) error) tea.Cmd {
	return func() tea.Msg {
		if v.sessionService == nil {
			return messages.GoalsLoaded{Err: ErrNoSessionService}
		}
		if fn != nil {
			if err := fn(v.sessionService); err != nil {
				return messages.GoalsLoaded{Err: err}
			}
		}
		goals, err := v.sessionService.Goals(v.ctx, v.sessionName)
		return messages.GoalsLoaded{Goals: goals, Err: err}
	}
}

// Update handles messages for the goals view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.adding {
			return v.handleAddKey(msg)
		}
		return v.handleListKey(msg)

	case messages.GoalsLoaded:
		v.handleLoaded(msg)
		return v, nil
	}

	return v, nil
}

func (v *View) handleListKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch key := msg.String(); {
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.goals)-1 {
			v.selected++
		}
	case keymap.Matches(key, v.keymap.Add):
		v.adding = true
		v.input.Reset()
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Toggle):
		if len(v.goals) == 0 || v.goals[v.selected].Completed {
			return v, nil
		}
		index := v.selected
		return v, v.run(func(s driving.SessionService) error {
			return s.CompleteGoal(v.ctx, v.sessionName, index)
		})
	}
	return v, nil
}

func (v *View) handleAddKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Back):
		v.stopAdding()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Send):
		text := strings.TrimSpace(v.input.Value())
		v.stopAdding()
		if text == "" {
			return v, nil
		}
		return v, v.run(func(s driving.SessionService) error {
			return s.AddGoal(v.ctx, v.sessionName, text)
		})
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) stopAdding() {
	v.adding = false
	v.input.Blur()
	v.input.Reset()
}

func (v *View) handleLoaded(msg messages.GoalsLoaded) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return
	}

	v.err = nil
	v.goals = msg.Goals
	if v.selected >= len(v.goals) {
		v.selected = max(len(v.goals)-1, 0)
	}
	done := 0
	for _, g := range v.goals {
		if g.Completed {
			done++
		}
	}
	if len(v.goals) == 0 {
		v.statusbar.Clear()
		return
	}
	v.statusbar.Set(status.StateDone, fmt.Sprintf("%d of %d completed", done, len(v.goals)))
}

// View renders the goals view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("RockyBot: Today's Goals"), ""}

	if len(v.goals) == 0 {
		sections = append(sections, v.styles.Muted.Render("No goals for today. Press a to add one."))
	}
	for i, g := range v.goals {
		mark := "[ ]"
		style := v.styles.Normal
		if g.Completed {
			mark = "[x]"
			style = v.styles.Done
		}
		cursor := "  "
		if i == v.selected && !v.adding {
			cursor = "> "
			style = v.styles.Selected
		}
		sections = append(sections, cursor+style.Render(mark+" "+g.Text))
	}

	if v.adding {
		sections = append(sections, "", v.input.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Goals returns the displayed goals.
func (v *View) Goals() []domain.Goal {
	return v.goals
}

// Selected returns the highlighted goal index.
func (v *View) Selected() int {
	return v.selected
}

// Adding returns true while a new goal is being typed.
func (v *View) Adding() bool {
	return v.adding
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}
