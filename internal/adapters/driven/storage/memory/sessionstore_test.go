package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

func TestSessionStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Now()
	s := domain.NewSession("id-1", "default", now)
	require.NoError(t, s.AddGoal("Stretch", now))

	require.NoError(t, store.Save(ctx, s))
	got, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, s.Goals, got.Goals)

	require.NoError(t, store.Delete(ctx, "default"))
	_, err = store.Get(ctx, "default")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_IsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Now()
	s := domain.NewSession("id-1", "default", now)
	require.NoError(t, store.Save(ctx, s))

	s.AppendExchange("hi", "hello")
	got, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, got.History)

	got.AppendExchange("a", "b")
	again, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, again.History)
}

func TestSessionStore_Save_Invalid(t *testing.T) {
	store := NewSessionStore()

	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(context.Background(), &domain.Session{}), domain.ErrInvalidInput)
}
