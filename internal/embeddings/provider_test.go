package embeddings

import (
	"context"
	"testing"

	"github.com/locable/locable/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantDim   int
		wantError error
	}{
		{
			name: "tei provider with valid config",
			cfg: ProviderConfig{
				Provider: "tei",
				BaseURL:  "http://localhost:8080",
				Model:    "sentence-transformers/all-MiniLM-L6-v2",
			},
			wantDim: 384,
		},
		{
			name: "tei provider without base URL",
			cfg: ProviderConfig{
				Provider: "tei",
				Model:    "sentence-transformers/all-MiniLM-L6-v2",
			},
			wantError: ErrInvalidConfig,
		},
		{
			name: "openai provider",
			cfg: ProviderConfig{
				Provider: "openai",
				APIKey:   "sk-test",
				Model:    "text-embedding-3-small",
			},
			wantDim: 1536,
		},
		{
			name: "openai provider with reduced dimension",
			cfg: ProviderConfig{
				Provider:  "openai",
				APIKey:    "sk-test",
				Model:     "text-embedding-3-small",
				Dimension: 256,
			},
			wantDim: 256,
		},
		{
			name:      "openai provider without credentials",
			cfg:       ProviderConfig{Provider: "openai"},
			wantError: ErrInvalidConfig,
		},
		{
			name:      "unknown provider",
			cfg:       ProviderConfig{Provider: "unknown"},
			wantError: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(context.Background(), tt.cfg)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, provider)
				return
			}
			require.NoError(t, err)
			defer provider.Close()
			assert.Equal(t, tt.wantDim, provider.Dimension())
		})
	}
}

func TestNewProvider_FastEmbedFailureIsNilProvider(t *testing.T) {
	provider, err := NewProvider(context.Background(), ProviderConfig{Provider: "fastembed", Model: "unknown-model"})
	require.Error(t, err)
	assert.True(t, provider == nil, "a failed provider must be a nil interface")
}

func TestProviderConfigFrom(t *testing.T) {
	cfg := config.Default().Embeddings
	cfg.APIKey = config.Secret("sk-secret")
	cfg.Dimension = 512

	pc := ProviderConfigFrom(cfg, nil)
	assert.Equal(t, "fastembed", pc.Provider)
	assert.Equal(t, config.DefaultEmbedModel, pc.Model)
	assert.Equal(t, "sk-secret", pc.APIKey)
	assert.Equal(t, 512, pc.Dimension)
}

func TestDetectDimensionFromModel(t *testing.T) {
	tests := map[string]int{
		"sentence-transformers/all-MiniLM-L6-v2": 384,
		"BAAI/bge-base-en-v1.5":                  768,
		"text-embedding-3-large":                 3072,
		"nomic-embed-text-base":                  768,
		"e5-Large":                               1024,
		"something-else":                         384,
	}
	for model, want := range tests {
		assert.Equal(t, want, detectDimensionFromModel(model), model)
	}
}
