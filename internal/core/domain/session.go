package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSessionName is used when no session name is given.
const DefaultSessionName = "default"

// ChatRole identifies the author of a chat message.
type ChatRole string

// Chat roles.
const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// Goal is a daily training goal.
type Goal struct {
	Text      string
	Completed bool
}

// TrainingEntry is one logged training session.
type TrainingEntry struct {
	// Date is the day the session took place.
	Date time.Time

	// Activity is what was trained.
	Activity string

	// DurationMinutes is the session length.
	DurationMinutes int

	// Notes is optional free text.
	Notes string
}

// Validate checks the entry has an activity and a positive duration.
func (e TrainingEntry) Validate() error {
	if strings.TrimSpace(e.Activity) == "" {
		return fmt.Errorf("%w: training activity cannot be empty", ErrInvalidInput)
	}
	if e.DurationMinutes <= 0 {
		return fmt.Errorf("%w: training duration must be greater than 0", ErrInvalidInput)
	}
	return nil
}

// Session holds the state of one user session: chat history, today's goals
// and the training log. It is passed explicitly, never held globally.
type Session struct {
	// ID uniquely identifies the session.
	ID string

	// Name is the user-facing session name, e.g. "default".
	Name string

	// StartedAt is when the session was created.
	StartedAt time.Time

	// History is the chat conversation so far.
	History []ChatMessage

	// GoalDate is the day Goals belong to.
	GoalDate time.Time

	// Goals are the goals set for GoalDate.
	Goals []Goal

	// TrainingLog lists logged sessions in insertion order.
	TrainingLog []TrainingEntry
}

// NewSession creates an empty session.
func NewSession(id, name string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Name:      name,
		StartedAt: now,
		GoalDate:  truncateDay(now),
	}
}

// AppendExchange records a user message and the assistant's reply.
func (s *Session) AppendExchange(user, assistant string) {
	s.History = append(s.History,
		ChatMessage{Role: RoleUser, Content: user},
		ChatMessage{Role: RoleAssistant, Content: assistant},
	)
}

// ResetChat clears the chat history.
func (s *Session) ResetChat() {
	s.History = nil
}

// RollGoals clears the goal list when now falls on a different day than
// the current goals. Returns true if the list was reset.
func (s *Session) RollGoals(now time.Time) bool {
	today := truncateDay(now)
	if s.GoalDate.Equal(today) {
		return false
	}
	s.GoalDate = today
	s.Goals = nil
	return true
}

// AddGoal adds a goal for today.
func (s *Session) AddGoal(text string, now time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: goal cannot be empty", ErrInvalidInput)
	}
	s.RollGoals(now)
	s.Goals = append(s.Goals, Goal{Text: text})
	return nil
}

// CompleteGoal marks today's goal at index as completed.
func (s *Session) CompleteGoal(index int, now time.Time) error {
	s.RollGoals(now)
	if index < 0 || index >= len(s.Goals) {
		return fmt.Errorf("%w: goal %d", ErrNotFound, index+1)
	}
	s.Goals[index].Completed = true
	return nil
}

// CompletedGoals returns today's completed goals.
func (s *Session) CompletedGoals() []Goal {
	var done []Goal
	for _, g := range s.Goals {
		if g.Completed {
			done = append(done, g)
		}
	}
	return done
}

// LogTraining appends a validated entry to the training log.
func (s *Session) LogTraining(entry TrainingEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry.Activity = strings.TrimSpace(entry.Activity)
	entry.Date = truncateDay(entry.Date)
	s.TrainingLog = append(s.TrainingLog, entry)
	return nil
}

// TotalTrainingMinutes sums the duration of all logged sessions.
func (s *Session) TotalTrainingMinutes() int {
	total := 0
	for _, e := range s.TrainingLog {
		total += e.DurationMinutes
	}
	return total
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
