// Package styles holds the lipgloss palette and styles shared by the TUI views.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette names the colours the views draw with. Each colour adapts to light
// and dark terminals.
type Palette struct {
	Accent    lipgloss.AdaptiveColor // titles, coach turns, answer rule
	Highlight lipgloss.AdaptiveColor // subtitles, user turns
	Text      lipgloss.AdaptiveColor
	Dim       lipgloss.AdaptiveColor // hints, distances, finished goals
	Surface   lipgloss.AdaptiveColor // status bar background
	Rule      lipgloss.AdaptiveColor // input border
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Alarm     lipgloss.AdaptiveColor
	Source    lipgloss.AdaptiveColor
}

// DojoPalette is the default palette: belt red and gold on a charcoal mat.
func DojoPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#E5484D"},
		Highlight: lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#F5C451"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6E1D6"},
		Dim:       lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B8680"},
		Surface:   lipgloss.AdaptiveColor{Light: "#EAEEF2", Dark: "#22201E"},
		Rule:      lipgloss.AdaptiveColor{Light: "#AFB8C1", Dark: "#4A4540"},
		Good:      lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#7BC77E"},
		Caution:   lipgloss.AdaptiveColor{Light: "#BF8700", Dark: "#E8B04A"},
		Alarm:     lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF7B72"},
		Source:    lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#6CB6FF"},
	}
}

// Styles are the rendered styles built from a Palette.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	// Status messages.
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Chat speaker labels.
	User lipgloss.Style
	Bot  lipgloss.Style

	// Answer is the generated answer block; Link is a cited source URL.
	Answer lipgloss.Style
	Link   lipgloss.Style

	// Done marks a completed goal.
	Done lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p Palette) *Styles {
	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		palette: p,

		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.Highlight).Bold(true),
		Normal:   fg(p.Text),
		Muted:    fg(p.Dim),
		Selected: fg(p.Text).Background(p.Accent).Bold(true),
		Help:     fg(p.Dim).Italic(true),

		Error:   fg(p.Alarm).Bold(true),
		Success: fg(p.Good),
		Warning: fg(p.Caution),

		InputField: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Rule).
			Padding(0, 1),
		StatusBar: fg(p.Dim).Background(p.Surface).Padding(0, 1),

		User: fg(p.Highlight).Bold(true),
		Bot:  fg(p.Accent).Bold(true),

		Answer: fg(p.Text).
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(p.Accent).
			PaddingLeft(1),
		Link: fg(p.Source).Underline(true),

		Done: fg(p.Dim).Strikethrough(true),
	}
}

// DefaultStyles returns styles built from DojoPalette.
func DefaultStyles() *Styles {
	return NewStyles(DojoPalette())
}

// Palette returns the palette the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}
