package main

import (
	"fmt"
	"path/filepath"

	"github.com/vegvisr/graphvec/internal/adapters/driven/config/file"
	"github.com/vegvisr/graphvec/internal/adapters/driven/factory"
	"github.com/vegvisr/graphvec/internal/adapters/driving/cli"
	"github.com/vegvisr/graphvec/internal/core/services"
)

// bootstrap builds the services for one command run.
func bootstrap(opts cli.BootstrapOptions) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, factory.NewConfigValidator())

	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsService}, func() {}, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	if settings.Storage.DataDir == "" && opts.ConfigDir != "" {
		settings.Storage.DataDir = filepath.Join(opts.ConfigDir, "data")
	}

	adapters, err := factory.Build(settings)
	if err != nil {
		return nil, nil, err
	}

	embeddings := adapters.Store.EmbeddingStore()
	analytics := adapters.Store.AnalyticsStore()
	pipeline := services.NewEmbeddingPipeline(adapters.EmbeddingService, settings.Embedding.Timeout)

	search := services.NewSearchService(
		adapters.EmbeddingService,
		adapters.VectorIndex,
		embeddings,
		adapters.GraphSource,
		services.SearchConfig{
			DefaultLimit: settings.Search.DefaultLimit,
			KeywordScore: settings.Search.KeywordScore,
			QueryTimeout: settings.VectorIndex.Timeout,
		},
	)
	search.SetAnalyticsStore(analytics)

	index := services.NewIndexService(adapters.GraphSource, embeddings, adapters.VectorIndex, pipeline)

	reindex := services.NewReindexOrchestrator(
		adapters.GraphSource,
		embeddings,
		adapters.VectorIndex,
		pipeline,
		services.ReindexConfig{
			RequestsPerSecond: settings.Reindex.RequestsPerSecond,
			Burst:             settings.Reindex.Burst,
			SampleSize:        settings.Reindex.SampleSize,
		},
	)

	status := services.NewStatusService(adapters.GraphSource, embeddings, settings.Reindex.SampleSize)

	return &cli.Services{
		Search:     search,
		Index:      index,
		Reindex:    reindex,
		Status:     status,
		Settings:   settingsService,
		Watcher:    adapters.GraphWatcher,
		History:    analytics,
		ServerAddr: settings.Server.Addr,
	}, adapters.Close, nil
}
