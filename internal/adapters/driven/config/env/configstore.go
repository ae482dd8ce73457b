// Package env overlays process environment variables on another config store.
package env

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Variables maps config keys to the environment variables that override them.
var Variables = map[string]string{
	"source.target_dir":             "TARGET_DIR",
	"source.skip_patterns":          "SKIP_PATTERNS",
	"index.path":                    "VECTOR_DB_PATH",
	"index.backend":                 "INDEX_BACKEND",
	"chunker.chunk_size":            "CHUNK_SIZE",
	"chunker.overlap":               "CHUNK_OVERLAP",
	"embedding.provider":            "EMBEDDING_PROVIDER",
	"embedding.model":               "EMBEDDING_MODEL",
	"embedding.dimensions":          "EMBEDDING_DIMENSIONS",
	"embedding.base_url":            "EMBEDDING_BASE_URL",
	"embedding.api_key":             "OPENAI_API_KEY",
	"embedding.batch_size":          "BATCH_SIZE",
	"embedding.concurrency":         "EMBED_CONCURRENCY",
	"embedding.max_attempts":        "EMBED_MAX_ATTEMPTS",
	"embedding.requests_per_second": "EMBED_RPS",
	"llm.provider":                  "LLM_PROVIDER",
	"llm.model":                     "LLM_MODEL",
	"llm.base_url":                  "LLM_BASE_URL",
	"llm.api_key":                   "OPENAI_API_KEY",
	"query.k":                       "RETRIEVAL_K",
	"session.window":                "WINDOW_SIZE",
	"watch.debounce_ms":             "WATCH_DEBOUNCE_MS",
	"watch.prune_deleted":           "WATCH_PRUNE_DELETED",
	"server.addr":                   "SERVER_ADDR",
}

// ConfigStore reads environment variables first and falls back to another
// store. Writes always go to the fallback.
type ConfigStore struct {
	fallback driven.ConfigStore
	dotenv   []string
}

// NewConfigStore wraps fallback. Each dotenv file is loaded into the process
// environment on Load; variables already set are not replaced.
// With no files, ".env" in the working directory is tried.
func NewConfigStore(fallback driven.ConfigStore, dotenv ...string) *ConfigStore {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	return &ConfigStore{fallback: fallback, dotenv: dotenv}
}

// Load reads the dotenv files, then reloads the fallback.
// Missing dotenv files are not an error.
func (s *ConfigStore) Load() error {
	for _, path := range s.dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return s.fallback.Load()
}

// lookup returns the non-empty environment override for key.
func (s *ConfigStore) lookup(key string) (string, bool) {
	name, ok := Variables[key]
	if !ok {
		return "", false
	}
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// Get retrieves a configuration value by key. Environment values are strings.
func (s *ConfigStore) Get(key string) (any, bool) {
	if val, ok := s.lookup(key); ok {
		return val, true
	}
	return s.fallback.Get(key)
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	if val, ok := s.lookup(key); ok {
		return val
	}
	return s.fallback.GetString(key)
}

// GetInt retrieves an integer configuration value.
// Unparseable environment values are ignored.
func (s *ConfigStore) GetInt(key string) int {
	if val, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return s.fallback.GetInt(key)
}

// GetBool retrieves a boolean configuration value.
// Unparseable environment values are ignored.
func (s *ConfigStore) GetBool(key string) bool {
	if val, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return s.fallback.GetBool(key)
}

// GetStringSlice retrieves a string slice. Environment values are comma-separated.
func (s *ConfigStore) GetStringSlice(key string) []string {
	if val, ok := s.lookup(key); ok {
		var result []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
		return result
	}
	return s.fallback.GetStringSlice(key)
}

// Set stores a value in the fallback store.
func (s *ConfigStore) Set(key string, value any) error {
	return s.fallback.Set(key, value)
}

// Save persists the fallback store.
func (s *ConfigStore) Save() error {
	return s.fallback.Save()
}

// Path returns the fallback store's path.
func (s *ConfigStore) Path() string {
	return s.fallback.Path()
}

// Overrides returns the config keys currently set from the environment, sorted.
func (s *ConfigStore) Overrides() []string {
	var keys []string
	for key := range Variables {
		if _, ok := s.lookup(key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
