// Package ask provides the question answering view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
)

// ErrNoAnswerService indicates that no answer service was provided.
var ErrNoAnswerService = errors.New("answer service is required")

// View asks questions and shows the answer with the chunks it used.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	list      *list.HitList
	statusbar *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	answer     *domain.Answer
	err        error
	thinking   bool
	focusInput bool
	width      int
	height     int
	ready      bool
}

// NewView creates an ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewPromptInput(s, "Ask:", "What do the articles say about..."),
		list:          list.NewHitList(s),
		statusbar:     status.NewBar(s, km.AskHelp()),
		answerService: answerService,
		ctx:           context.Background(),
		focusInput:    true,
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.err = msg.Err
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(msg.String(), v.keymap.Focus):
		v.setFocus(!v.focusInput || v.list.Count() == 0)
		return v, nil

	case v.focusInput && keymap.Matches(msg.String(), v.keymap.Send):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.thinking {
			return v, nil
		}
		v.thinking = true
		v.err = nil
		v.statusbar.Set(status.StateThinking, "Searching the index...")
		return v, v.performAsk(question)
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) setFocus(onInput bool) {
	v.focusInput = onInput
	if onInput {
		v.input.Focus()
	} else {
		v.input.Blur()
	}
}

func (v *View) performAsk(question string) tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		answer, err := v.answerService.Answer(v.ctx, question, domain.AskOptions{Degrade: true})
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerCompleted) {
	v.thinking = false
	if msg.Err != nil {
		v.err = msg.Err
		v.answer = nil
		v.list.SetHits(nil)
		v.statusbar.Set(status.StateError, describeError(msg.Err))
		return
	}

	v.err = nil
	v.answer = msg.Answer
	v.list.SetHits(msg.Answer.Hits)
	if len(msg.Answer.Warnings) > 0 {
		v.statusbar.Set(status.StateWarning, strings.Join(msg.Answer.Warnings, "; "))
		return
	}
	v.statusbar.Set(status.StateDone,
		fmt.Sprintf("%d chunks, %d sources", len(msg.Answer.Hits), len(msg.Answer.Sources)))
}

// describeError shortens well-known failures for the status bar.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "no index found, run 'rockybot ingest' first"
	case errors.Is(err, domain.ErrNoResults):
		return "the index has no matching content"
	case errors.Is(err, domain.ErrModelMismatch), errors.Is(err, domain.ErrDimensionMismatch):
		return "the index was built with a different embedding model"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "embedding service unavailable"
	default:
		return err.Error()
	}
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("RockyBot: News Research"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		if v.answer.Text != "" {
			sections = append(sections,
				v.styles.Subtitle.Render("Answer"),
				v.styles.Answer.Width(max(v.width-4, 20)).Render(v.answer.Text),
				"")
		}
		if len(v.answer.Sources) > 0 {
			sections = append(sections, v.styles.Subtitle.Render("Sources"))
			for _, src := range v.answer.Sources {
				sections = append(sections, "  "+v.styles.Link.Render(src))
			}
			sections = append(sections, "")
		}
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height/2)
	v.statusbar.SetWidth(width)
}

// Reset clears the question and answer.
func (v *View) Reset() {
	v.setFocus(true)
	v.input.Reset()
	v.list.SetHits(nil)
	v.answer = nil
	v.err = nil
	v.thinking = false
	v.statusbar.Clear()
}

// Answer returns the last answer, if any.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Thinking returns true while a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// SelectedHit returns the highlighted chunk, if any.
func (v *View) SelectedHit() *domain.SearchHit {
	return v.list.SelectedHit()
}
