//go:build cgo

package embeddings

import (
	"context"
	"errors"
	"os"
	"testing"
)

// skipWithoutONNX skips tests that need a real model.
func skipWithoutONNX(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping FastEmbed test in short mode")
	}
	if os.Getenv("ONNX_PATH") == "" && !ONNXRuntimeExists() {
		t.Skip("ONNX runtime not available, skipping FastEmbed test")
	}
}

func TestNewFastEmbedProvider_UnsupportedModel(t *testing.T) {
	_, err := NewFastEmbedProvider(context.Background(), FastEmbedConfig{Model: "unknown-model"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFastEmbedProvider_DefaultModel(t *testing.T) {
	skipWithoutONNX(t)

	provider, err := NewFastEmbedProvider(context.Background(), FastEmbedConfig{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFastEmbedProvider() error = %v", err)
	}
	defer provider.Close()

	if provider.Dimension() != 384 {
		t.Errorf("Dimension() = %d, want 384", provider.Dimension())
	}
	if provider.modelName != "sentence-transformers/all-MiniLM-L6-v2" {
		t.Errorf("modelName = %q", provider.modelName)
	}

	ctx := context.Background()

	t.Run("documents", func(t *testing.T) {
		embeddings, err := provider.EmbedDocuments(ctx, []string{".container { display: flex }", "Another text"})
		if err != nil {
			t.Fatalf("EmbedDocuments() error = %v", err)
		}
		if len(embeddings) != 2 || len(embeddings[0]) != 384 {
			t.Errorf("unexpected shape: %d x %d", len(embeddings), len(embeddings[0]))
		}
	})

	t.Run("query", func(t *testing.T) {
		embedding, err := provider.EmbedQuery(ctx, "container class css")
		if err != nil {
			t.Fatalf("EmbedQuery() error = %v", err)
		}
		if len(embedding) != 384 {
			t.Errorf("expected 384 dimensions, got %d", len(embedding))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := provider.EmbedDocuments(ctx, nil); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("expected ErrEmptyInput, got %v", err)
		}
		if _, err := provider.EmbedQuery(ctx, ""); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("expected ErrEmptyInput, got %v", err)
		}
	})
}

func TestModelMapping(t *testing.T) {
	tests := []struct {
		name        string
		modelName   string
		wantDim     int
		shouldExist bool
	}{
		{"MiniLM", "sentence-transformers/all-MiniLM-L6-v2", 384, true},
		{"BAAI format", "BAAI/bge-small-en-v1.5", 384, true},
		{"fastembed format", "fast-bge-small-en-v1.5", 384, true},
		{"base model", "BAAI/bge-base-en-v1.5", 768, true},
		{"unknown", "unknown-model", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := modelMapping[tt.modelName]
			if ok != tt.shouldExist {
				t.Fatalf("model %q in mapping = %v, want %v", tt.modelName, ok, tt.shouldExist)
			}
			if !ok {
				return
			}
			if dim, _ := fastEmbedModelDimension(tt.modelName); dim != tt.wantDim {
				t.Errorf("dimension = %d, want %d", dim, tt.wantDim)
			}
		})
	}
}
