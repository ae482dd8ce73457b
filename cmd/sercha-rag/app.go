package main

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/metrics"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/loaders"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// buildApp resolves settings and assembles the services behind every
// command. Partially built resources are released on failure.
func buildApp(settingsService driving.SettingsService) (app *cli.App, err error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = closeAll()
		}
	}()

	aiServices, err := ai.NewServices(settings)
	if err != nil {
		return nil, err
	}
	closers = append(closers, aiServices.Close)

	index, err := openIndex(settings)
	if err != nil {
		return nil, err
	}
	closers = append(closers, index.Close)

	if err := services.CheckIndexCompatibility(index, aiServices.Embedding); err != nil {
		return nil, err
	}

	m := metrics.New("")
	embedder := services.NewBatchEmbedder(aiServices.Embedding, settings.Embedding,
		services.WithEmbedderMetrics(m))

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunker)
	if err != nil {
		return nil, err
	}

	fs := filesystem.New()
	closers = append(closers, fs.Close)

	registry := loaders.NewDefaultRegistry()
	ingestor := services.NewIngestionCoordinator(fs, registry, pipeline, embedder, index,
		services.WithIngestMetrics(m))

	rules := domain.DefaultSkipRules()
	rules.Patterns = append(rules.Patterns, settings.Source.SkipPatterns...)

	watcher := services.NewChangeWatcher(fs, ingestor, registry, rules, settings.Watch)
	sessions := services.NewSessionManager(settings.Session.Window, m)

	app = &cli.App{
		Ingest:     ingestor,
		Watcher:    watcher,
		Sessions:   sessions,
		Metrics:    m,
		Roots:      []string{settings.Source.TargetDir},
		Rules:      rules,
		ServerAddr: settings.Server.Addr,
		Close:      closeAll,
	}

	if aiServices.LLM == nil {
		logger.Debug("no LLM configured, questions are unavailable")
		return app, nil
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return nil, err
	}
	app.Query = services.NewQueryService(embedder, index, aiServices.LLM, sessions, prompts, m, settings.Query.K)
	return app, nil
}

func openIndex(settings *domain.Settings) (driven.VectorIndex, error) {
	identity := settings.Embedding.Identity()
	if settings.Index.Backend == domain.IndexBackendMemory {
		return memory.NewVectorIndex(identity), nil
	}
	store, err := sqlite.NewStore(settings.Index.Path, identity)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", settings.Index.Path, err)
	}
	return store, nil
}
