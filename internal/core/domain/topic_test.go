package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicGuard_Allows(t *testing.T) {
	guard := NewTopicGuard(DefaultTopicKeywords(), "")

	tests := []struct {
		message string
		want    bool
	}{
		{"What is the best Karate stance?", true},
		{"Tips for BJJ guard passing", true},
		{"teach me muay thai clinch", true},
		{"What's the weather tomorrow?", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Allows(tt.message))
		})
	}
}

func TestTopicGuard_NoKeywordsAllowsEverything(t *testing.T) {
	guard := NewTopicGuard(nil, "")

	assert.True(t, guard.Allows("anything at all"))
}

func TestTopicGuard_IgnoresBlankKeywords(t *testing.T) {
	guard := NewTopicGuard([]string{"  ", "", "Judo"}, "")

	assert.True(t, guard.Allows("judo throws"))
	assert.False(t, guard.Allows("cooking"))
}

func TestTopicGuard_Refusal(t *testing.T) {
	assert.Equal(t, DefaultRefusal, NewTopicGuard(nil, "").Refusal())
	assert.Equal(t, "news only", NewTopicGuard(nil, "news only").Refusal())
}
