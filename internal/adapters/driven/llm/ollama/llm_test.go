package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLLMService(Config{BaseURL: server.URL + "/"})
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultTimeout, svc.client.Timeout)
	assert.NoError(t, svc.Close())
}

func TestChat(t *testing.T) {
	var got chatRequest
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hello"},"done":true}`))
	})

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.ChatRoleSystem, Content: "answer from context"},
		{Role: driven.ChatRoleUser, Content: "hi"},
	}, driven.ChatOptions{Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.False(t, got.Stream)
	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.Options)
	assert.InDelta(t, 0.2, got.Options.Temperature, 1e-9)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      string
		rateLimit bool
	}{
		{"status error", http.StatusNotFound, `{"error":"model not found"}`, "model not found", false},
		{"rate limited", http.StatusTooManyRequests, `busy`, "busy", true},
		{"error field", http.StatusOK, `{"error":"out of memory"}`, "out of memory", false},
		{"empty reply", http.StatusOK, `{"message":{"role":"assistant","content":"  "},"done":true}`, "empty chat response", false},
		{"bad json", http.StatusOK, `{`, "decode response", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, tt.rateLimit, errors.Is(err, domain.ErrRateLimited))
		})
	}
}

func TestPing(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))

	down := NewLLMService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, down.Ping(context.Background()))
}
