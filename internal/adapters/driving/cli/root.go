// Package cli provides the rockybot command-line interface.
// It is a driving adapter: commands call the driving ports and never touch
// driven adapters directly.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// annotationLongRunning marks commands that keep running and benefit from
// the cached index store.
const annotationLongRunning = "rockybot/long-running"

// version is set by SetVersion from build flags.
var version = "dev"

// Services aggregates the driving ports used by commands.
type Services struct {
	Ingest   driving.IngestService
	Answer   driving.AnswerService
	Chat     driving.ChatService
	Session  driving.SessionService
	Settings driving.SettingsService
}

// Options describes the invocation, for the initializer.
type Options struct {
	// ConfigPath is the --config flag. Empty means the default location.
	ConfigPath string

	// LongRunning is true for the tui and serve commands.
	LongRunning bool
}

// Initializer builds the services for an invocation. The returned cleanup
// runs after the command finishes.
type Initializer func(ctx context.Context, opts Options) (*Services, func(), error)

// Services used by commands. Set by the initializer or by tests.
var (
	ingestService   driving.IngestService
	answerService   driving.AnswerService
	chatService     driving.ChatService
	sessionService  driving.SessionService
	settingsService driving.SettingsService
)

var (
	initializer Initializer
	cleanup     func()

	verbose     bool
	configPath  string
	sessionName string
)

var rootCmd = &cobra.Command{
	Use:   "rockybot",
	Short: "News research with retrieval-augmented answers",
	Long: `RockyBot builds a semantic index over news articles and answers
questions about them with an LLM, citing the articles it used.

  rockybot ingest https://example.com/article
  rockybot ask "What did the article say about rates?"

It also carries a martial arts chatbot with daily goals and a training log.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initialise,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.rockybot/config.toml)")
	rootCmd.PersistentFlags().StringVar(&sessionName, "session", domain.DefaultSessionName, "chat session name")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetInitializer sets the function that builds services before each command.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	answerService = s.Answer
	chatService = s.Chat
	sessionService = s.Session
	settingsService = s.Settings
}

// Execute runs the root command and returns its error after printing it.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
		if hint := errorHint(err); hint != "" {
			rootCmd.PrintErrln(hint)
		}
	}
	return err
}

func initialise(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if initializer == nil || cmd.Name() == versionCmd.Name() {
		return nil
	}

	services, done, err := initializer(cmd.Context(), Options{
		ConfigPath:  configPath,
		LongRunning: cmd.Annotations[annotationLongRunning] == "true",
	})
	if err != nil {
		return err
	}
	cleanup = done
	SetServices(services)
	return nil
}

// errorHint suggests a next step for well-known failures.
func errorHint(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound) && stageIs(err, domain.StageRetrieval):
		return "No index found. Run 'rockybot ingest URL...' first."
	case errors.Is(err, domain.ErrModelMismatch), errors.Is(err, domain.ErrDimensionMismatch):
		return "The index was built with a different embedding model. Re-run 'rockybot ingest' or restore the embedding settings."
	case errors.Is(err, domain.ErrIndexCorrupt):
		return "The index file is damaged. Re-run 'rockybot ingest' to rebuild it."
	case errors.Is(err, domain.ErrIngestInProgress):
		return "Another ingestion is writing this index. Wait for it to finish."
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		return "Check the provider with 'rockybot settings check'."
	case errors.Is(err, domain.ErrNoResults):
		return "The index has no matching content. Ingest more articles."
	default:
		return ""
	}
}

func stageIs(err error, stage domain.Stage) bool {
	s, ok := domain.StageOf(err)
	return ok && s == stage
}

// requireService returns an error naming the missing service.
func requireService(svc any, name string) error {
	if svc == nil {
		return fmt.Errorf("%s service not configured", name)
	}
	return nil
}
