package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendSQLite IndexBackend = "sqlite"
	IndexBackendMemory IndexBackend = "memory"
)

// SourceSettings configures which documents are indexed.
type SourceSettings struct {
	// TargetDir is the document root directory.
	TargetDir string

	// SkipPatterns are extra glob patterns excluded from walks.
	SkipPatterns []string
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	// Path is the persistence directory.
	Path string

	// Backend selects sqlite (persistent) or memory.
	Backend IndexBackend
}

// ChunkerSettings configures the chunking engine.
type ChunkerSettings struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int

	// Overlap is the length shared between adjacent chunks.
	Overlap int
}

// EmbeddingSettings holds embedding provider and batching configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// Dimensions is the output vector size.
	Dimensions int

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the maximum number of texts per embedding call.
	BatchSize int

	// Concurrency bounds outstanding embedding calls.
	Concurrency int

	// MaxAttempts bounds retries of a failing batch.
	MaxAttempts int

	// RequestsPerSecond is the sustained embedding call rate.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// Identity returns the index identity this configuration produces.
func (e EmbeddingSettings) Identity() IndexIdentity {
	return IndexIdentity{Model: e.Model, Dimensions: e.Dimensions}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// QuerySettings configures retrieval.
type QuerySettings struct {
	// K is the number of entries retrieved per question.
	K int
}

// SessionSettings configures conversation memory.
type SessionSettings struct {
	// Window is the number of turns kept per session.
	Window int
}

// WatchSettings configures the change watcher.
type WatchSettings struct {
	// Debounce coalesces bursts of events per path. Zero disables it.
	Debounce time.Duration

	// PruneDeleted removes index entries for deleted files.
	PruneDeleted bool
}

// ServerSettings configures the HTTP query endpoint.
type ServerSettings struct {
	Addr string
}

// Settings is the complete application configuration.
type Settings struct {
	Source    SourceSettings
	Index     IndexSettings
	Chunker   ChunkerSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Query     QuerySettings
	Session   SessionSettings
	Watch     WatchSettings
	Server    ServerSettings
}

// DefaultSettings returns settings with documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Source: SourceSettings{
			TargetDir: "./documents",
		},
		Index: IndexSettings{
			Path:    "./vector_store",
			Backend: IndexBackendSQLite,
		},
		Chunker: ChunkerSettings{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOpenAI,
			Model:             "text-embedding-3-small",
			Dimensions:        256,
			BatchSize:         100,
			Concurrency:       4,
			MaxAttempts:       3,
			RequestsPerSecond: 5,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		Query: QuerySettings{
			K: 5,
		},
		Session: SessionSettings{
			Window: 6,
		},
		Server: ServerSettings{
			Addr: ":8000",
		},
	}
}

// Validate checks settings for values that would break invariants.
func (s Settings) Validate() error {
	if s.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if s.Chunker.Overlap < 0 || s.Chunker.Overlap >= s.Chunker.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, chunk size)", ErrInvalidInput)
	}
	if s.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidInput)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidInput)
	}
	if s.Query.K <= 0 {
		return fmt.Errorf("%w: retrieval k must be positive", ErrInvalidInput)
	}
	if s.Session.Window <= 0 {
		return fmt.Errorf("%w: session window must be positive", ErrInvalidInput)
	}
	if s.Index.Backend != IndexBackendSQLite && s.Index.Backend != IndexBackendMemory {
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidInput, s.Index.Backend)
	}
	return nil
}

// EmbeddingDimensions returns the native vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
