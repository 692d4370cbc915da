package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/rockybot/internal/adapters/driven/ai"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/loader/web"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/lock"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/storage/snapshot"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/storage/watch"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/tokens"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/rockybot/internal/adapters/driving/cli"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/core/services"
	"github.com/custodia-labs/rockybot/internal/logger"
	"github.com/custodia-labs/rockybot/internal/postprocessors/chunker"
)

// initialise builds the services for one command invocation.
func initialise(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	logger.Section("Startup")

	configStore, err := openConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	home := filepath.Dir(configStore.Path())
	dataDir := filepath.Join(home, "data")
	logger.Debug("config: %s", configStore.Path())

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(), dataDir)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	aiServices := ai.Initialise(ctx, settings, false)
	closers = append(closers, aiServices.Close)
	for _, w := range aiServices.Warnings {
		logger.Debug("ai: %s", w)
	}

	store := newIndexStore(settings.Index.Backend)
	if opts.LongRunning {
		cached, err := watch.New(store)
		if err != nil {
			logger.Warn("index cache disabled: %v", err)
		} else {
			store = cached
			closers = append(closers, func() { _ = cached.Close() })
		}
	}

	sessionDB, err := sqlite.NewStore(dataDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}
	closers = append(closers, func() { _ = sessionDB.Close() })

	ingest := services.NewIngestService(
		web.New(web.ConfigFromSettings(settings.Loader)),
		chunker.New(chunker.WithChunkSize(settings.Chunker.ChunkSize)),
		aiServices.Embedder,
		flat.Factory,
		store,
		services.IngestConfig{
			Path:      settings.Index.Path,
			ChunkSize: settings.Chunker.ChunkSize,
			Metric:    settings.Index.Metric,
		},
	)
	ingest.SetLocker(lock.NewFileLocker())

	answer := services.NewAnswerService(store, aiServices.Embedder, aiServices.LLMService, services.AnswerConfig{
		Path:             settings.Index.Path,
		K:                settings.Retriever.K,
		Degrade:          settings.Retriever.Degrade,
		MaxContextTokens: settings.Retriever.MaxContextTokens,
	})
	answer.SetTokenCounter(tokens.NewLazy(tokens.DefaultEncoding))

	chat := services.NewChatService(
		aiServices.LLMService,
		domain.NewTopicGuard(settings.Chat.Topics, settings.Chat.Refusal),
	)

	if prompts, err := file.NewPromptStore(filepath.Join(home, "prompts")); err != nil {
		logger.Warn("custom prompts disabled: %v", err)
	} else {
		answer.SetPromptStore(prompts)
		chat.SetPromptStore(prompts)
	}

	return &cli.Services{
		Ingest:   ingest,
		Answer:   answer,
		Chat:     chat,
		Session:  services.NewSessionService(sessionDB.SessionStore()),
		Settings: settingsService,
	}, cleanup, nil
}

func openConfig(path string) (*file.ConfigStore, error) {
	if path != "" {
		return file.OpenConfigFile(path)
	}
	return file.NewConfigStore("")
}

func newIndexStore(backend domain.IndexBackend) driven.IndexStore {
	if backend == domain.IndexBackendSQLite {
		return sqlite.NewIndexStore(flat.Factory)
	}
	return snapshot.NewStore(flat.Factory)
}
