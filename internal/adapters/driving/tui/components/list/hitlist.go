// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// HitList displays retrieved chunks in a navigable list.
type HitList struct {
	hits     []domain.SearchHit
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewHitList creates an empty hit list.
func NewHitList(s *styles.Styles) *HitList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &HitList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (h *HitList) Update(msg tea.Msg) (*HitList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			h.MoveUp()
		case "down", "j":
			h.MoveDown()
		}
	}
	return h, nil
}

// View renders the visible part of the list.
func (h *HitList) View() string {
	if len(h.hits) == 0 {
		return h.styles.Muted.Render("No chunks")
	}

	lines := make([]string, 0, len(h.hits)*2+2)
	lines = append(lines, h.styles.Subtitle.Render(fmt.Sprintf("Chunks (%d)", len(h.hits))), "")

	// Each hit takes two lines.
	visible := (h.height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if h.selected >= visible {
		start = h.selected - visible + 1
	}
	end := min(start+visible, len(h.hits))

	for i := start; i < end; i++ {
		lines = append(lines, h.renderHit(i, &h.hits[i]))
	}
	return strings.Join(lines, "\n")
}

func (h *HitList) renderHit(index int, hit *domain.SearchHit) string {
	indicator := "  "
	if index == h.selected {
		indicator = "> "
	}

	source := truncate(hit.Entry.Source, max(h.width-16, 10))
	distance := fmt.Sprintf("%.3f", hit.Distance)

	var head string
	if index == h.selected {
		head = h.styles.Selected.Render(indicator+source) + "  " + h.styles.Muted.Render(distance)
	} else {
		head = h.styles.Link.Render(indicator+source) + "  " + h.styles.Muted.Render(distance)
	}

	preview := strings.Join(strings.Fields(hit.Entry.Text), " ")
	preview = truncate(preview, max(h.width-6, 20))
	return head + "\n" + h.styles.Muted.Render("    "+preview)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetHits replaces the list contents and selects the first hit.
func (h *HitList) SetHits(hits []domain.SearchHit) {
	h.hits = hits
	h.selected = 0
}

// Hits returns the current hits.
func (h *HitList) Hits() []domain.SearchHit {
	return h.hits
}

// Selected returns the index of the selected hit.
func (h *HitList) Selected() int {
	return h.selected
}

// SelectedHit returns the selected hit, or nil if the list is empty.
func (h *HitList) SelectedHit() *domain.SearchHit {
	if h.selected < 0 || h.selected >= len(h.hits) {
		return nil
	}
	return &h.hits[h.selected]
}

// MoveUp moves selection up.
func (h *HitList) MoveUp() {
	if h.selected > 0 {
		h.selected--
	}
}

// MoveDown moves selection down.
func (h *HitList) MoveDown() {
	if h.selected < len(h.hits)-1 {
		h.selected++
	}
}

// SetDimensions sets the component dimensions.
func (h *HitList) SetDimensions(width, height int) {
	h.width = width
	h.height = height
}

// Count returns the number of hits.
func (h *HitList) Count() int {
	return len(h.hits)
}
