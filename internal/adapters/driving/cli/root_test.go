package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// mockIngestService records the last ingestion request.
type mockIngestService struct {
	urls   []string
	opts   domain.IngestOptions
	report *domain.IngestReport
	err    error
}

func (m *mockIngestService) Ingest(_ context.Context, urls []string, opts domain.IngestOptions) (*domain.IngestReport, error) {
	m.urls = urls
	m.opts = opts
	if opts.Observer != nil {
		for _, stage := range []domain.Stage{domain.StageLoading, domain.StageChunking, domain.StageEmbedding, domain.StageIndexing} {
			opts.Observer(domain.IngestionState{Stage: stage})
		}
	}
	return m.report, m.err
}

func (m *mockIngestService) State() domain.IngestionState {
	return domain.IngestionState{}
}

// mockAnswerService returns a canned answer.
type mockAnswerService struct {
	question string
	opts     domain.AskOptions
	answer   *domain.Answer
	info     *domain.IndexInfo
	err      error
}

func (m *mockAnswerService) Answer(_ context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	m.question = question
	m.opts = opts
	return m.answer, m.err
}

func (m *mockAnswerService) Info(context.Context, string) (*domain.IndexInfo, error) {
	return m.info, m.err
}

// mockChatService echoes messages unless an error is set.
type mockChatService struct {
	sent []string
	err  error
}

func (m *mockChatService) Send(_ context.Context, s *domain.Session, message string) (string, error) {
	m.sent = append(m.sent, message)
	if errors.Is(m.err, domain.ErrOffTopic) {
		return domain.DefaultRefusal, m.err
	}
	if m.err != nil {
		return "", m.err
	}
	reply := "coach: " + message
	s.AppendExchange(message, reply)
	return reply, nil
}

// mockSessionService keeps a single in-memory session.
type mockSessionService struct {
	session *domain.Session
	saves   int
	resets  int
	err     error
}

func newMockSessionService() *mockSessionService {
	return &mockSessionService{session: domain.NewSession("s1", domain.DefaultSessionName, time.Now())}
}

func (m *mockSessionService) Open(context.Context, string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockSessionService) Save(context.Context, *domain.Session) error {
	m.saves++
	return m.err
}

func (m *mockSessionService) ResetChat(context.Context, string) error {
	m.resets++
	m.session.ResetChat()
	return m.err
}

func (m *mockSessionService) AddGoal(_ context.Context, _ string, text string) error {
	if m.err != nil {
		return m.err
	}
	return m.session.AddGoal(text, time.Now())
}

func (m *mockSessionService) CompleteGoal(_ context.Context, _ string, index int) error {
	return m.session.CompleteGoal(index, time.Now())
}

func (m *mockSessionService) Goals(context.Context, string) ([]domain.Goal, error) {
	return m.session.Goals, m.err
}

func (m *mockSessionService) LogTraining(_ context.Context, _ string, entry domain.TrainingEntry) error {
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	return m.session.LogTraining(entry)
}

func (m *mockSessionService) TrainingLog(context.Context, string) ([]domain.TrainingEntry, error) {
	return m.session.TrainingLog, m.err
}

// mockSettingsService stores settings in memory.
type mockSettingsService struct {
	settings domain.AppSettings
	set      map[string]string
	checkErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings("/tmp/rockybot"),
		set:      make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) { return &m.settings, nil }
func (m *mockSettingsService) Save(*domain.AppSettings) error    { return nil }

func (m *mockSettingsService) Set(key, value string) error {
	if !strings.Contains(key, ".") {
		return fmt.Errorf("%w: unknown key %s", domain.ErrInvalidInput, key)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Validate(*domain.AppSettings) error { return nil }
func (m *mockSettingsService) Check(context.Context) error        { return m.checkErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings    { return m.settings }
func (m *mockSettingsService) Keys() []string                     { return []string{"llm.model"} }

func (m *mockSettingsService) Values(s *domain.AppSettings) []domain.Setting {
	return []domain.Setting{
		{Key: "embedding.model", Value: s.Embedding.Model},
		{Key: "llm.model", Value: s.LLM.Model},
		{Key: "llm.api_key", Value: "sk-1234567890abcdef", Secret: true},
		{Key: "index.path", Value: s.Index.Path},
	}
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest   *mockIngestService
	answer   *mockAnswerService
	chat     *mockChatService
	session  *mockSessionService
	settings *mockSettingsService
}

// setupTestServices installs mocks and returns them with a cleanup.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest:   &mockIngestService{},
		answer:   &mockAnswerService{},
		chat:     &mockChatService{},
		session:  newMockSessionService(),
		settings: newMockSettingsService(),
	}
	SetServices(&Services{
		Ingest:   ts.ingest,
		Answer:   ts.answer,
		Chat:     ts.chat,
		Session:  ts.session,
		Settings: ts.settings,
	})
	return ts, func() { SetServices(nil) }
}

// resetFlags restores flag variables, which outlive a single Execute.
func resetFlags() {
	verbose = false
	configPath = ""
	sessionName = domain.DefaultSessionName
	askK, askDegrade, askFormat, askIndexPath = 0, false, formatText, ""
	ingestChunkSize, ingestIndexPath = 0, ""
	indexInfoPath = ""
	chatReset = false
	trainingActivity, trainingMinutes, trainingDate, trainingNotes = "", 0, "", ""
	serveAddr = ":8080"
}

// runCommand executes rootCmd with args and returns stdout and stderr.
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "rockybot", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config", "session"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, domain.DefaultSessionName, rootCmd.PersistentFlags().Lookup("session").DefValue)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "ask", "index", "chat", "goals", "training", "settings", "tui", "serve", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestLongRunningAnnotation(t *testing.T) {
	assert.Equal(t, "true", serveCmd.Annotations[annotationLongRunning])
	assert.Equal(t, "true", tuiCmd.Annotations[annotationLongRunning])
	assert.Empty(t, askCmd.Annotations[annotationLongRunning])
}

func TestInitializer_ReceivesOptions(t *testing.T) {
	defer SetInitializer(nil)
	defer SetServices(nil)

	var got Options
	SetInitializer(func(_ context.Context, opts Options) (*Services, func(), error) {
		got = opts
		return &Services{Session: newMockSessionService()}, func() {}, nil
	})

	_, _, err := runCommand(t, "", "--config", "/etc/rockybot.toml", "goals", "list")

	require.NoError(t, err)
	assert.Equal(t, "/etc/rockybot.toml", got.ConfigPath)
	assert.False(t, got.LongRunning)
}

func TestInitializer_ErrorStopsCommand(t *testing.T) {
	defer SetInitializer(nil)

	SetInitializer(func(context.Context, Options) (*Services, func(), error) {
		return nil, nil, errors.New("config broken")
	})

	_, _, err := runCommand(t, "", "goals", "list")

	assert.EqualError(t, err, "config broken")
}

func TestInitializer_SkippedForVersion(t *testing.T) {
	defer SetInitializer(nil)

	called := false
	SetInitializer(func(context.Context, Options) (*Services, func(), error) {
		called = true
		return &Services{}, nil, nil
	})

	_, _, err := runCommand(t, "", "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestErrorHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing index",
			err:  domain.NewStageError(domain.StageRetrieval, "index.rkb", domain.ErrNotFound),
			want: "rockybot ingest",
		},
		{"model mismatch", fmt.Errorf("x: %w", domain.ErrModelMismatch), "different embedding model"},
		{"dimension mismatch", domain.ErrDimensionMismatch, "different embedding model"},
		{"corrupt", domain.ErrIndexCorrupt, "damaged"},
		{"in progress", domain.ErrIngestInProgress, "Wait"},
		{"llm down", domain.ErrLLMUnavailable, "settings check"},
		{"no results", domain.ErrNoResults, "Ingest more"},
		{"plain not found", domain.ErrNotFound, ""},
		{"other", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := errorHint(tt.err)
			if tt.want == "" {
				assert.Empty(t, hint)
			} else {
				assert.Contains(t, hint, tt.want)
			}
		})
	}
}

func TestMissingServices(t *testing.T) {
	SetServices(nil)

	tests := [][]string{
		{"ingest", "https://a.example"},
		{"ask", "q"},
		{"index", "info"},
		{"chat", "hi"},
		{"goals", "list"},
		{"training", "list"},
		{"settings", "show"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, _, err := runCommand(t, "", args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "not configured")
		})
	}
}
