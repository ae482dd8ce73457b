package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestServices_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		s := &Services{}
		assert.NoError(t, s.Close())
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
			},
			wantNil: true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderOllama,
				BaseURL:    "http://localhost:11434",
				Model:      "nomic-embed-text",
				Dimensions: 768,
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider:          domain.AIProviderOpenAI,
				APIKey:            "test-key",
				Model:             "text-embedding-3-small",
				Dimensions:        256,
				Concurrency:       4,
				RequestsPerSecond: 10,
			},
		},
		{
			name: "unknown provider returns nil",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
			assert.Equal(t, tt.settings.Dimensions, svc.Dimensions())
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.LLMSettings{}, wantNil: true},
		{
			name:     "openai without key is not configured",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name:     "ollama provider creates service",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
		},
		{
			name:     "openai provider creates service",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "test-key", Model: "gpt-4o-mini"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestNewServices(t *testing.T) {
	t.Run("missing embedding provider", func(t *testing.T) {
		settings := &domain.Settings{
			Embedding: domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
		}
		_, err := NewServices(settings)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	})

	t.Run("embedding without llm", func(t *testing.T) {
		settings := &domain.Settings{
			Embedding: domain.EmbeddingSettings{
				Provider:   domain.AIProviderOllama,
				Model:      "nomic-embed-text",
				Dimensions: 768,
			},
		}
		services, err := NewServices(settings)
		require.NoError(t, err)
		defer services.Close()
		assert.NotNil(t, services.Embedding)
		assert.Nil(t, services.LLM)
	})

	t.Run("both configured", func(t *testing.T) {
		settings := &domain.Settings{
			Embedding: domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text", Dimensions: 768},
			LLM:       domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
		}
		services, err := NewServices(settings)
		require.NoError(t, err)
		assert.NotNil(t, services.Embedding)
		assert.NotNil(t, services.LLM)
		assert.NoError(t, services.Close())
	})
}

// newOllamaStub serves the endpoints the Ollama adapters ping.
func newOllamaStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/tags":
			_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
		case "/api/embed":
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}})
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck(t *testing.T) {
	t.Run("unconfigured providers fail", func(t *testing.T) {
		results := Check(context.Background(), &domain.Settings{})
		require.Len(t, results, 2)
		assert.False(t, results[0].OK())
		assert.True(t, errors.Is(results[0].Err, domain.ErrEmbeddingUnavailable))
		assert.False(t, results[1].OK())
		assert.True(t, errors.Is(results[1].Err, domain.ErrLLMUnavailable))
	})

	t.Run("reachable providers pass", func(t *testing.T) {
		srv := newOllamaStub(t)
		results := Check(context.Background(), &domain.Settings{
			Embedding: domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL, Model: "m", Dimensions: 3},
			LLM:       domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL, Model: "llama3.2"},
		})
		for _, r := range results {
			assert.True(t, r.OK(), "%s: %v", r.Name, r.Err)
		}
	})

	t.Run("unreachable provider fails", func(t *testing.T) {
		srv := newOllamaStub(t)
		url := srv.URL
		srv.Close()

		results := Check(context.Background(), &domain.Settings{
			Embedding: domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: url, Model: "m", Dimensions: 3},
		})
		assert.False(t, results[0].OK())
		assert.Contains(t, results[0].Err.Error(), "unreachable")
	})
}
