package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rockybot/internal/core/domain"
)

type stubChat struct {
	reply string
	err   error
	seen  []string
}

func (s *stubChat) Send(_ context.Context, session *domain.Session, message string) (string, error) {
	s.seen = append(s.seen, message)
	if s.err != nil {
		if s.err == domain.ErrOffTopic {
			return domain.DefaultRefusal, s.err
		}
		return "", s.err
	}
	session.AppendExchange(message, s.reply)
	return s.reply, nil
}

type stubSessions struct {
	sessions map[string]*domain.Session
	saved    int
	resets   int
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessions) Open(_ context.Context, name string) (*domain.Session, error) {
	if sess, ok := s.sessions[name]; ok {
		return cloneSession(sess), nil
	}
	return domain.NewSession("id-"+name, name, time.Now()), nil
}

func (s *stubSessions) Save(_ context.Context, session *domain.Session) error {
	s.saved++
	s.sessions[session.Name] = cloneSession(session)
	return nil
}

func (s *stubSessions) ResetChat(_ context.Context, name string) error {
	s.resets++
	if sess, ok := s.sessions[name]; ok {
		sess.ResetChat()
	}
	return nil
}

func (s *stubSessions) AddGoal(context.Context, string, string) error        { return nil }
func (s *stubSessions) CompleteGoal(context.Context, string, int) error      { return nil }
func (s *stubSessions) Goals(context.Context, string) ([]domain.Goal, error) { return nil, nil }
func (s *stubSessions) LogTraining(context.Context, string, domain.TrainingEntry) error {
	return nil
}
func (s *stubSessions) TrainingLog(context.Context, string) ([]domain.TrainingEntry, error) {
	return nil, nil
}

// loadedView returns a sized view with its session loaded.
func loadedView(t *testing.T, chat *stubChat, sessions *stubSessions) *View {
	t.Helper()
	v := NewView(nil, nil, chat, sessions, "")
	v.SetDimensions(100, 30)
	v.Update(v.loadSession()())
	require.NotNil(t, v.Session())
	return v
}

func say(t *testing.T, v *View, text string) {
	t.Helper()
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, v.Thinking())
	assert.Contains(t, v.View(), "Coach is typing...")
	v.Update(cmd())
}

func TestView_LoadsExistingHistory(t *testing.T) {
	sessions := newStubSessions()
	existing := domain.NewSession("id", domain.DefaultSessionName, time.Now())
	existing.AppendExchange("hi", "Ready to train?")
	sessions.sessions[domain.DefaultSessionName] = existing

	v := loadedView(t, &stubChat{}, sessions)

	assert.Len(t, v.Transcript(), 2)
	assert.Contains(t, v.View(), "Ready to train?")
}

func TestView_SendRecordsAndSaves(t *testing.T) {
	chat := &stubChat{reply: "Drill your jab for ten minutes."}
	sessions := newStubSessions()
	v := loadedView(t, chat, sessions)

	say(t, v, "how do I improve my boxing?")

	assert.False(t, v.Thinking())
	assert.Equal(t, []string{"how do I improve my boxing?"}, chat.seen)
	require.Len(t, v.Transcript(), 2)
	assert.Equal(t, "Drill your jab for ten minutes.", v.Transcript()[1].Content)
	assert.Len(t, v.Session().History, 2)
	assert.Equal(t, 1, sessions.saved)
	assert.Len(t, sessions.sessions[domain.DefaultSessionName].History, 2)
	assert.Empty(t, v.input.Value())
}

func TestView_OffTopicShowsRefusal(t *testing.T) {
	sessions := newStubSessions()
	v := loadedView(t, &stubChat{err: domain.ErrOffTopic}, sessions)

	say(t, v, "what's the weather?")

	require.Len(t, v.Transcript(), 2)
	assert.Equal(t, domain.DefaultRefusal, v.Transcript()[1].Content)
	assert.Empty(t, v.Session().History)
	assert.Equal(t, 0, sessions.saved)
	assert.Equal(t, status.StateWarning, v.statusbar.State())
}

func TestView_UpstreamErrorShowsTroubleReply(t *testing.T) {
	sessions := newStubSessions()
	v := loadedView(t, &stubChat{err: fmt.Errorf("%w: timeout", domain.ErrUpstream)}, sessions)

	say(t, v, "teach me a kata")

	require.Len(t, v.Transcript(), 2)
	assert.Equal(t, domain.TroubleReply, v.Transcript()[1].Content)
	assert.Empty(t, v.Session().History)
	assert.ErrorIs(t, v.Err(), domain.ErrUpstream)
	assert.Equal(t, 0, sessions.saved)
}

func TestView_NewChatClearsHistory(t *testing.T) {
	sessions := newStubSessions()
	v := loadedView(t, &stubChat{reply: "Osu."}, sessions)
	say(t, v, "karate")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, 1, sessions.resets)
	assert.Empty(t, v.Transcript())
	assert.Contains(t, v.View(), "Say hello")
}

func TestView_IgnoresEnterWithoutSessionOrText(t *testing.T) {
	v := NewView(nil, nil, &stubChat{}, newStubSessions(), "")
	v.SetDimensions(80, 24)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "session not loaded yet")
}

func TestView_NoSessionService(t *testing.T) {
	v := NewView(nil, nil, &stubChat{}, nil, "")
	v.SetDimensions(80, 24)

	v.Update(v.loadSession()())

	assert.ErrorIs(t, v.Err(), ErrNoSessionService)
	assert.Nil(t, v.Session())
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := NewView(nil, nil, nil, nil, "")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestCloneSession_Independent(t *testing.T) {
	s := domain.NewSession("id", "default", time.Now())
	s.AppendExchange("a", "b")

	c := cloneSession(s)
	c.AppendExchange("c", "d")

	assert.Len(t, s.History, 2)
	assert.Len(t, c.History, 4)
}
