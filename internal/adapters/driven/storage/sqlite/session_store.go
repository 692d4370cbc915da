package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// historyMessage is the JSON form of a chat message.
type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Get retrieves a session by name.
func (s *sessionStore) Get(ctx context.Context, name string) (*domain.Session, error) {
	var (
		session                     domain.Session
		startedAt, goalDate, histJS string
	)
	err := s.store.db.QueryRowContext(ctx, `
		SELECT name, id, started_at, goal_date, history FROM sessions WHERE name = ?
	`, name).Scan(&session.Name, &session.ID, &startedAt, &goalDate, &histJS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %q", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if session.GoalDate, err = parseTime(goalDate); err != nil {
		return nil, err
	}

	var history []historyMessage
	if err := json.Unmarshal([]byte(histJS), &history); err != nil {
		return nil, fmt.Errorf("unmarshalling history: %w", err)
	}
	for _, m := range history {
		session.History = append(session.History, domain.ChatMessage{Role: domain.ChatRole(m.Role), Content: m.Content})
	}

	if session.Goals, err = s.goals(ctx, name); err != nil {
		return nil, err
	}
	if session.TrainingLog, err = s.trainingLog(ctx, name); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *sessionStore) goals(ctx context.Context, name string) ([]domain.Goal, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT text, completed FROM goals WHERE session_name = ? ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.Goal //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			g         domain.Goal
			completed int
		)
		if err := rows.Scan(&g.Text, &completed); err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		g.Completed = completed != 0
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goals: %w", err)
	}
	return goals, nil
}

func (s *sessionStore) trainingLog(ctx context.Context, name string) ([]domain.TrainingEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT date, activity, duration_minutes, notes FROM training_log
		WHERE session_name = ? ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying training log: %w", err)
	}
	defer rows.Close()

	var log []domain.TrainingEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			e    domain.TrainingEntry
			date string
		)
		if err := rows.Scan(&date, &e.Activity, &e.DurationMinutes, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning training entry: %w", err)
		}
		if e.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		log = append(log, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating training log: %w", err)
	}
	return log, nil
}

// Save stores or replaces a session together with its goals and training log.
func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", domain.ErrInvalidInput)
	}
	if session.Name == "" {
		return fmt.Errorf("%w: session name is empty", domain.ErrInvalidInput)
	}

	history := make([]historyMessage, 0, len(session.History))
	for _, m := range session.History {
		history = append(history, historyMessage{Role: string(m.Role), Content: m.Content})
	}
	histJS, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshalling history: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (name, id, started_at, goal_date, history, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			started_at = excluded.started_at,
			goal_date = excluded.goal_date,
			history = excluded.history,
			updated_at = CURRENT_TIMESTAMP
	`, session.Name, session.ID, formatTime(session.StartedAt), formatTime(session.GoalDate), string(histJS))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM goals WHERE session_name = ?", session.Name); err != nil {
		return fmt.Errorf("clearing goals: %w", err)
	}
	for i, g := range session.Goals {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goals (session_name, position, text, completed) VALUES (?, ?, ?, ?)
		`, session.Name, i, g.Text, boolToInt(g.Completed))
		if err != nil {
			return fmt.Errorf("saving goal: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM training_log WHERE session_name = ?", session.Name); err != nil {
		return fmt.Errorf("clearing training log: %w", err)
	}
	for i, e := range session.TrainingLog {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO training_log (session_name, position, date, activity, duration_minutes, notes)
			VALUES (?, ?, ?, ?, ?, ?)
		`, session.Name, i, formatTime(e.Date), e.Activity, e.DurationMinutes, e.Notes)
		if err != nil {
			return fmt.Errorf("saving training entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// Delete removes a session and everything attached to it.
func (s *sessionStore) Delete(ctx context.Context, name string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
