package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/storygraph/am"
)

func TestLocalEndpointNormalizesBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434/", "http://localhost:11434/v1"},
		{"http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"http://localhost:8080/v1/", "http://localhost:8080/v1"},
	}
	for _, tt := range tests {
		e := LocalEndpoint(tt.in)
		assert.Equal(t, tt.want, e.BaseURL, tt.in)
		assert.True(t, e.Local())
		assert.Empty(t, e.APIKey)
	}
}

func TestSelectEndpoint(t *testing.T) {
	cfg := &am.Config{
		LocalInference: am.LocalInferenceConfig{
			Enabled: true,
			BaseURL: "http://localhost:11434",
		},
		OpenRouter: am.OpenRouterConfig{APIKey: "sk-or-test"},
	}

	t.Run("explicit names", func(t *testing.T) {
		for _, name := range []string{"local", "ollama", "localai"} {
			e, err := SelectEndpoint(name, cfg)
			require.NoError(t, err, name)
			assert.True(t, e.Local(), name)
		}
		for _, name := range []string{"openrouter", "or"} {
			e, err := SelectEndpoint(name, cfg)
			require.NoError(t, err, name)
			assert.Equal(t, "openrouter", e.Provider, name)
			assert.Equal(t, "sk-or-test", e.APIKey, name)
		}
	})

	t.Run("auto prefers local when enabled", func(t *testing.T) {
		for _, name := range []string{"auto", ""} {
			e, err := SelectEndpoint(name, cfg)
			require.NoError(t, err)
			assert.True(t, e.Local())
		}
	})

	t.Run("auto falls back to openrouter", func(t *testing.T) {
		disabled := *cfg
		disabled.LocalInference.Enabled = false
		e, err := SelectEndpoint("auto", &disabled)
		require.NoError(t, err)
		assert.Equal(t, "openrouter", e.Provider)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := SelectEndpoint("bedrock", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})
}
