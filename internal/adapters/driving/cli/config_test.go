package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Helper functions used by the config prompts.

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParsePositive(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 768},
		{"1024", 1024},
		{"0", 768},
		{"-5", 768},
		{"abc", 768},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parsePositive(tt.input, 768))
		})
	}
}

func TestEmbeddingDimensions(t *testing.T) {
	assert.Equal(t, 256, embeddingDimensions("text-embedding-3-small"))
	assert.Equal(t, 256, embeddingDimensions("text-embedding-3-large"))
	assert.Equal(t, 768, embeddingDimensions("nomic-embed-text"))
	assert.Equal(t, 1024, embeddingDimensions("mxbai-embed-large"))
	assert.Equal(t, 768, embeddingDimensions("something-else"))
}

func TestConfigShow(t *testing.T) {
	ta := setupTestApp(t)
	ta.settings.settings.Embedding.APIKey = "sk-abcdefghijklmnop"
	SetConfigInfo(ConfigInfo{
		Path:      "/home/user/.sercha-rag/config.toml",
		Overrides: func() []string { return []string{"EMBEDDING_MODEL", "OPENAI_API_KEY"} },
	})

	for _, args := range [][]string{{"config"}, {"config", "show"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			out, err := execute(t, args...)

			require.NoError(t, err)
			assert.Contains(t, out, "File: /home/user/.sercha-rag/config.toml")
			assert.Contains(t, out, "From environment: EMBEDDING_MODEL, OPENAI_API_KEY")
			assert.Contains(t, out, "Target dir: ./documents")
			assert.Contains(t, out, "Model: text-embedding-3-small (256 dimensions)")
			assert.Contains(t, out, "API Key: sk-a...mnop")
			assert.NotContains(t, out, "sk-abcdefghijklmnop")
			assert.Contains(t, out, "Passages per question: 5")
		})
	}
}

func TestConfigShow_NoSettingsService(t *testing.T) {
	setupTestApp(t)
	SetSettingsService(nil)

	_, err := execute(t, "config", "show")

	assert.Error(t, err)
}

func TestConfigEmbedding(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		currentKey string
		provider   domain.AIProvider
		model      string
		dims       int
		apiKey     string
		changed    bool
		wantErr    bool
	}{
		{
			name:     "ollama defaults",
			input:    "2\n\n\n",
			provider: domain.AIProviderOllama,
			model:    "nomic-embed-text",
			dims:     768,
			changed:  true,
		},
		{
			name:     "ollama custom model and dimensions",
			input:    "2\nmxbai-embed-large\n512\n",
			provider: domain.AIProviderOllama,
			model:    "mxbai-embed-large",
			dims:     512,
			changed:  true,
		},
		{
			name:       "openai keeps current key",
			input:      "1\n\n\n\n",
			currentKey: "sk-existing-key-1234",
			provider:   domain.AIProviderOpenAI,
			model:      "text-embedding-3-small",
			dims:       256,
			apiKey:     "sk-existing-key-1234",
		},
		{
			name:     "openai new key",
			input:    "\n\n\nsk-new-key-abcdefgh\n",
			provider: domain.AIProviderOpenAI,
			model:    "text-embedding-3-small",
			dims:     256,
			apiKey:   "sk-new-key-abcdefgh",
		},
		{
			name:    "openai without key",
			input:   "1\n\n\n\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := setupTestApp(t)
			ta.settings.settings.Embedding.APIKey = tt.currentKey
			stdin = strings.NewReader(tt.input)

			out, err := execute(t, "config", "embedding")

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 0, ta.settings.saved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, ta.settings.saved)
			got := ta.settings.settings.Embedding
			assert.Equal(t, tt.provider, got.Provider)
			assert.Equal(t, tt.model, got.Model)
			assert.Equal(t, tt.dims, got.Dimensions)
			assert.Equal(t, tt.apiKey, got.APIKey)
			assert.Equal(t, tt.changed, strings.Contains(out, "re-run \"index\""))
		})
	}
}

func TestConfigLLM(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		provider domain.AIProvider
		model    string
		apiKey   string
		wantErr  bool
	}{
		{
			name:     "ollama custom model",
			input:    "2\nmistral\n",
			provider: domain.AIProviderOllama,
			model:    "mistral",
		},
		{
			name:     "openai default model",
			input:    "1\n\nsk-llm-key-12345678\n",
			provider: domain.AIProviderOpenAI,
			model:    "gpt-4o-mini",
			apiKey:   "sk-llm-key-12345678",
		},
		{
			name:     "invalid choice falls back to first provider",
			input:    "9\ngpt-4o\nsk-llm-key-12345678\n",
			provider: domain.AIProviderOpenAI,
			model:    "gpt-4o",
			apiKey:   "sk-llm-key-12345678",
		},
		{
			name:    "openai without key",
			input:   "1\n\n\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := setupTestApp(t)
			stdin = strings.NewReader(tt.input)

			out, err := execute(t, "config", "llm")

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 0, ta.settings.saved)
				return
			}
			require.NoError(t, err)
			got := ta.settings.settings.LLM
			assert.Equal(t, tt.provider, got.Provider)
			assert.Equal(t, tt.model, got.Model)
			assert.Equal(t, tt.apiKey, got.APIKey)
			assert.Contains(t, out, "LLM provider configured")
		})
	}
}
