package goals

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rockybot/internal/core/domain"
)

type stubSessions struct {
	goals []domain.Goal
	names []string
}

func (s *stubSessions) Open(context.Context, string) (*domain.Session, error) { return nil, nil }
func (s *stubSessions) Save(context.Context, *domain.Session) error           { return nil }
func (s *stubSessions) ResetChat(context.Context, string) error               { return nil }

func (s *stubSessions) AddGoal(_ context.Context, name, text string) error {
	s.names = append(s.names, name)
	if strings.TrimSpace(text) == "" {
		return domain.ErrInvalidInput
	}
	s.goals = append(s.goals, domain.Goal{Text: text})
	return nil
}

func (s *stubSessions) CompleteGoal(_ context.Context, _ string, i int) error {
	if i < 0 || i >= len(s.goals) {
		return domain.ErrNotFound
	}
	s.goals[i].Completed = true
	return nil
}

func (s *stubSessions) Goals(context.Context, string) ([]domain.Goal, error) {
	return append([]domain.Goal(nil), s.goals...), nil
}

func (s *stubSessions) LogTraining(context.Context, string, domain.TrainingEntry) error {
	return nil
}

func (s *stubSessions) TrainingLog(context.Context, string) ([]domain.TrainingEntry, error) {
	return nil, nil
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// deliver runs cmd and feeds the result back into v.
func deliver(t *testing.T, v *View, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func newLoadedView(t *testing.T, svc *stubSessions) *View {
	t.Helper()
	v := NewView(nil, nil, svc, "dojo")
	v.SetDimensions(100, 30)
	deliver(t, v, v.Init())
	return v
}

func TestView_EmptyList(t *testing.T) {
	v := newLoadedView(t, &stubSessions{})

	assert.Empty(t, v.Goals())
	assert.Contains(t, v.View(), "No goals for today")
}

func TestView_AddGoal(t *testing.T) {
	svc := &stubSessions{}
	v := newLoadedView(t, svc)

	v.Update(key("a"))
	require.True(t, v.Adding())

	for _, r := range "50 push-ups" {
		v.Update(key(string(r)))
	}
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	deliver(t, v, cmd)

	assert.False(t, v.Adding())
	require.Len(t, v.Goals(), 1)
	assert.Equal(t, "50 push-ups", v.Goals()[0].Text)
	assert.Equal(t, []string{"dojo"}, svc.names)
	assert.Contains(t, v.View(), "[ ] 50 push-ups")
}

func TestView_AddGoalCancelled(t *testing.T) {
	svc := &stubSessions{}
	v := newLoadedView(t, svc)

	v.Update(key("a"))
	v.Update(key("x"))
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd, "esc while adding does not leave the view")
	assert.False(t, v.Adding())
	assert.Empty(t, svc.names)
}

func TestView_EmptyGoalNotSent(t *testing.T) {
	svc := &stubSessions{}
	v := newLoadedView(t, svc)

	v.Update(key("a"))
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, svc.names)
}

func TestView_CompleteSelectedGoal(t *testing.T) {
	svc := &stubSessions{goals: []domain.Goal{{Text: "stretch"}, {Text: "shadow box"}}}
	v := newLoadedView(t, svc)

	v.Update(key("j"))
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	deliver(t, v, cmd)

	assert.False(t, v.Goals()[0].Completed)
	assert.True(t, v.Goals()[1].Completed)
	assert.Equal(t, "1 of 2 completed", v.statusbar.Message())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, cmd, "completed goals cannot be completed again")
}

func TestView_Navigation(t *testing.T) {
	v := newLoadedView(t, &stubSessions{goals: []domain.Goal{{Text: "a"}, {Text: "b"}}})

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.Selected())

	v.Update(key("k"))
	v.Update(key("k"))
	assert.Equal(t, 0, v.Selected())
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil, nil, "")
	v.SetDimensions(80, 24)

	deliver(t, v, v.Init())

	assert.ErrorIs(t, v.Err(), ErrNoSessionService)
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := newLoadedView(t, &stubSessions{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
