package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestDojoPalette_StatusColoursAreDistinct(t *testing.T) {
	p := DojoPalette()

	for _, mode := range []struct {
		name string
		pick func(lipgloss.AdaptiveColor) string
	}{
		{"light", func(c lipgloss.AdaptiveColor) string { return c.Light }},
		{"dark", func(c lipgloss.AdaptiveColor) string { return c.Dark }},
	} {
		t.Run(mode.name, func(t *testing.T) {
			seen := make(map[string]bool)
			for _, c := range []lipgloss.AdaptiveColor{p.Accent, p.Highlight, p.Good, p.Caution, p.Alarm, p.Source} {
				hex := mode.pick(c)
				assert.Regexp(t, `^#[0-9A-F]{6}$`, hex)
				assert.False(t, seen[hex], "duplicate colour %s", hex)
				seen[hex] = true
			}
		})
	}
}

func TestDefaultStyles_UsesDojoPalette(t *testing.T) {
	assert.Equal(t, DojoPalette(), DefaultStyles().Palette())
}

func TestNewStyles_FollowsPalette(t *testing.T) {
	p := DojoPalette()
	p.Accent = lipgloss.AdaptiveColor{Light: "#000001", Dark: "#000002"}

	s := NewStyles(p)

	assert.Equal(t, p.Accent, s.Title.GetForeground())
	assert.Equal(t, p.Accent, s.Bot.GetForeground())
	assert.Equal(t, p.Accent, s.Answer.GetBorderLeftForeground())
	assert.Equal(t, p.Accent, s.Selected.GetBackground())
}

func TestStyles_ViewStylesRender(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"User":   s.User,
		"Bot":    s.Bot,
		"Answer": s.Answer,
		"Link":   s.Link,
		"Done":   s.Done,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, style.Render("osu"), "osu")
		})
	}
	assert.True(t, s.Done.GetStrikethrough())
	assert.True(t, s.Answer.GetBorderLeft())
	assert.False(t, s.Answer.GetBorderTop())
}
