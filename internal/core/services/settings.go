package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyTargetDir         = "source.target_dir"
	KeySkipPatterns      = "source.skip_patterns"
	KeyIndexPath         = "index.path"
	KeyIndexBackend      = "index.backend"
	KeyChunkSize         = "chunker.chunk_size"
	KeyChunkOverlap      = "chunker.overlap"
	KeyEmbedProvider     = "embedding.provider"
	KeyEmbedModel        = "embedding.model"
	KeyEmbedDimensions   = "embedding.dimensions"
	KeyEmbedBaseURL      = "embedding.base_url"
	KeyEmbedAPIKey       = "embedding.api_key"
	KeyEmbedBatchSize    = "embedding.batch_size"
	KeyEmbedConcurrency  = "embedding.concurrency"
	KeyEmbedMaxAttempts  = "embedding.max_attempts"
	KeyEmbedRPS          = "embedding.requests_per_second"
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMBaseURL        = "llm.base_url"
	KeyLLMAPIKey         = "llm.api_key"
	KeyQueryK            = "query.k"
	KeySessionWindow     = "session.window"
	KeyWatchDebounceMS   = "watch.debounce_ms"
	KeyWatchPruneDeleted = "watch.prune_deleted"
	KeyServerAddr        = "server.addr"
)

// SettingsService resolves application settings from a ConfigStore,
// falling back to defaults for unset keys.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Source: domain.SourceSettings{
			TargetDir:    s.getString(KeyTargetDir, d.Source.TargetDir),
			SkipPatterns: s.configStore.GetStringSlice(KeySkipPatterns),
		},
		Index: domain.IndexSettings{
			Path:    s.getString(KeyIndexPath, d.Index.Path),
			Backend: domain.IndexBackend(s.getString(KeyIndexBackend, string(d.Index.Backend))),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize: s.getInt(KeyChunkSize, d.Chunker.ChunkSize),
			Overlap:   s.getInt(KeyChunkOverlap, d.Chunker.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(KeyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(KeyEmbedModel, d.Embedding.Model),
			Dimensions:        s.getInt(KeyEmbedDimensions, d.Embedding.Dimensions),
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL), // No default - empty selects the provider's
			APIKey:            s.configStore.GetString(KeyEmbedAPIKey),
			BatchSize:         s.getInt(KeyEmbedBatchSize, d.Embedding.BatchSize),
			Concurrency:       s.getInt(KeyEmbedConcurrency, d.Embedding.Concurrency),
			MaxAttempts:       s.getInt(KeyEmbedMaxAttempts, d.Embedding.MaxAttempts),
			RequestsPerSecond: s.getFloat(KeyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(KeyLLMProvider, d.LLM.Provider),
			Model:    s.getString(KeyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
			APIKey:   s.configStore.GetString(KeyLLMAPIKey),
		},
		Query: domain.QuerySettings{
			K: s.getInt(KeyQueryK, d.Query.K),
		},
		Session: domain.SessionSettings{
			Window: s.getInt(KeySessionWindow, d.Session.Window),
		},
		Watch: domain.WatchSettings{
			Debounce:     time.Duration(s.getInt(KeyWatchDebounceMS, 0)) * time.Millisecond,
			PruneDeleted: s.getBool(KeyWatchPruneDeleted, d.Watch.PruneDeleted),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(KeyServerAddr, d.Server.Addr),
		},
	}

	return settings, nil
}

// Save persists application settings. API keys are written only when set.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyTargetDir, settings.Source.TargetDir},
		{KeySkipPatterns, settings.Source.SkipPatterns},
		{KeyIndexPath, settings.Index.Path},
		{KeyIndexBackend, string(settings.Index.Backend)},
		{KeyChunkSize, settings.Chunker.ChunkSize},
		{KeyChunkOverlap, settings.Chunker.Overlap},
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedDimensions, settings.Embedding.Dimensions},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedBatchSize, settings.Embedding.BatchSize},
		{KeyEmbedConcurrency, settings.Embedding.Concurrency},
		{KeyEmbedMaxAttempts, settings.Embedding.MaxAttempts},
		{KeyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyQueryK, settings.Query.K},
		{KeySessionWindow, settings.Session.Window},
		{KeyWatchDebounceMS, int(settings.Watch.Debounce / time.Millisecond)},
		{KeyWatchPruneDeleted, settings.Watch.PruneDeleted},
		{KeyServerAddr, settings.Server.Addr},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{KeyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{KeyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Validate checks the effective settings for values that would break
// chunking, batching or retrieval invariants.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// CheckIndexCompatibility verifies that vectors produced by the embedding
// service can be compared with those already in the index.
func CheckIndexCompatibility(index driven.VectorIndex, embedding driven.EmbeddingService) error {
	stored := index.Identity()
	if stored.IsZero() {
		return nil
	}
	return stored.Check(domain.IndexIdentity{
		Model:      embedding.ModelName(),
		Dimensions: embedding.Dimensions(),
	})
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns the stored value, including an explicit zero. Missing or
// unparseable values fall back to defaultVal.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v != float64(int(v)) {
			return defaultVal
		}
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		// A layered store may still hold a usable value below the bad one.
		if n := s.configStore.GetInt(key); n != 0 {
			return n
		}
		return defaultVal
	default:
		return defaultVal
	}
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return defaultVal
		}
		return f
	default:
		return defaultVal
	}
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
