package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

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

func TestSettingsShowCommand(t *testing.T) {
	t.Run("shows sections and validity", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.settings.settings.Retrieval.FilenamePrefixes = []string{"건축법", "주차장법"}

		out, err := execute(t, "settings")

		requireNoError(t, out, err)
		assert.Contains(t, out, "[Chunking]")
		assert.Contains(t, out, "Chunk size: 1000")
		assert.Contains(t, out, "Top K: 5")
		assert.Contains(t, out, "Filename prefixes: 건축법, 주차장법")
		assert.Contains(t, out, "not configured (keyword search only)")
		assert.Contains(t, out, "Vector dir: (default)")
		assert.Contains(t, out, "Configuration is valid.")
	})

	t.Run("masks api key and reports validation warning", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.settings.settings.Embedding = domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-1234567890abcdef",
		}
		ts.settings.validateErr = errors.New("retrieval: top_k must be positive")

		out, err := execute(t, "settings", "show")

		requireNoError(t, out, err)
		assert.Contains(t, out, "API Key: sk-1...cdef")
		assert.NotContains(t, out, "sk-1234567890abcdef")
		assert.Contains(t, out, "Warning: retrieval: top_k must be positive")
	})
}

func TestSettingsSetCommand(t *testing.T) {
	t.Run("sets value", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := execute(t, "settings", "set", "retrieval.top_k", "8")

		requireNoError(t, out, err)
		assert.Equal(t, "8", ts.settings.setCalls["retrieval.top_k"])
		assert.Contains(t, out, "Set retrieval.top_k = 8")
	})

	t.Run("masks api key in output", func(t *testing.T) {
		setupTestServices(t)

		out, err := execute(t, "settings", "set", "embedding.api_key", "sk-1234567890abcdef")

		requireNoError(t, out, err)
		assert.Contains(t, out, "Set embedding.api_key = sk-1...cdef")
	})

	t.Run("error is wrapped", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.settings.setErr = errors.New("invalid value")

		_, err := execute(t, "settings", "set", "chunking.chunk_size", "-1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set chunking.chunk_size")
	})

	t.Run("requires key and value", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "settings", "set", "retrieval.top_k")
		assert.Error(t, err)
	})
}

func TestSettingsEmbeddingCommand(t *testing.T) {
	t.Run("configures local provider with default model", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := executeWithInput(t, "1\n\n", "settings", "embedding")

		requireNoError(t, out, err)
		assert.Equal(t, domain.AIProviderOllama, ts.settings.provider)
		assert.Equal(t, "nomic-embed-text", ts.settings.model)
		assert.Empty(t, ts.settings.apiKey)
		assert.Contains(t, out, "Validating configuration... OK")
	})

	t.Run("validation failure", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.settings.pingErr = errors.New("connection refused")

		out, err := executeWithInput(t, "1\nmxbai-embed-large\n", "settings", "embedding")

		require.Error(t, err)
		assert.Equal(t, "mxbai-embed-large", ts.settings.model)
		assert.Contains(t, out, "FAILED: connection refused")
	})
}
