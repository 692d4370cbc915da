package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewMenu, "menu"},
		{ViewAsk, "ask"},
		{ViewChat, "chat"},
		{ViewGoals, "goals"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.view.String())
	}
}

func TestChatReplied_CarriesSession(t *testing.T) {
	s := &domain.Session{Name: "default"}
	msg := ChatReplied{Reply: "Keep your guard up.", Session: s}

	assert.Same(t, s, msg.Session)
	assert.NoError(t, msg.Err)
}

func TestAnswerCompleted_Error(t *testing.T) {
	err := errors.New("boom")
	msg := AnswerCompleted{Err: err}

	assert.Nil(t, msg.Answer)
	assert.ErrorIs(t, msg.Err, err)
}
