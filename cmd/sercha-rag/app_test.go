package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type stubSettings struct {
	settings domain.Settings
}

func (s *stubSettings) Get() (*domain.Settings, error) {
	settings := s.settings
	return &settings, nil
}

func (s *stubSettings) Save(*domain.Settings) error { return nil }

func (s *stubSettings) GetDefaults() domain.Settings { return domain.DefaultSettings() }

func (s *stubSettings) Validate() error { return s.settings.Validate() }

func ollamaSettings(t *testing.T) domain.Settings {
	t.Helper()
	settings := domain.DefaultSettings()
	settings.Source.TargetDir = t.TempDir()
	settings.Source.SkipPatterns = []string{"**/*.log"}
	settings.Index.Backend = domain.IndexBackendMemory
	settings.Embedding.Provider = domain.AIProviderOllama
	settings.Embedding.Model = "nomic-embed-text"
	settings.Embedding.Dimensions = 768
	settings.Embedding.BaseURL = "http://127.0.0.1:1"
	return settings
}

func TestBuildApp_WithoutLLM(t *testing.T) {
	settings := ollamaSettings(t)

	app, err := buildApp(&stubSettings{settings: settings})

	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	assert.NotNil(t, app.Ingest)
	assert.NotNil(t, app.Watcher)
	assert.NotNil(t, app.Sessions)
	assert.NotNil(t, app.Metrics)
	assert.Nil(t, app.Query)
	assert.Equal(t, []string{settings.Source.TargetDir}, app.Roots)
	assert.Contains(t, app.Rules.Patterns, "**/*.log")
	assert.Equal(t, ":8000", app.ServerAddr)
}

func TestBuildApp_WithLLM(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	settings := ollamaSettings(t)
	settings.LLM.Provider = domain.AIProviderOllama
	settings.LLM.Model = "llama3.2"
	settings.LLM.BaseURL = "http://127.0.0.1:1"

	app, err := buildApp(&stubSettings{settings: settings})

	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	assert.NotNil(t, app.Query)
}

func TestBuildApp_SQLiteIndex(t *testing.T) {
	settings := ollamaSettings(t)
	settings.Index.Backend = domain.IndexBackendSQLite
	settings.Index.Path = filepath.Join(t.TempDir(), "vector_store")

	app, err := buildApp(&stubSettings{settings: settings})

	require.NoError(t, err)
	require.NoError(t, app.Close())
}

func TestBuildApp_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Settings)
		target error
	}{
		{
			name:   "invalid settings",
			mutate: func(s *domain.Settings) { s.Chunker.Overlap = s.Chunker.ChunkSize },
			target: domain.ErrInvalidInput,
		},
		{
			name: "embedding not configured",
			mutate: func(s *domain.Settings) {
				s.Embedding.Provider = domain.AIProviderOpenAI
				s.Embedding.APIKey = ""
			},
			target: domain.ErrEmbeddingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := ollamaSettings(t)
			tt.mutate(&settings)

			_, err := buildApp(&stubSettings{settings: settings})

			assert.ErrorIs(t, err, tt.target)
		})
	}
}
