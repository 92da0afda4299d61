//go:build !cgo

package embeddings

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrFastEmbedNotAvailable is returned by the fastembed provider in binaries
// built with CGO_ENABLED=0. The tei and openai providers are unaffected.
var ErrFastEmbedNotAvailable = errors.New("fastembed: built without cgo, set embeddings.provider to tei or openai")

// FastEmbedConfig mirrors the cgo build so callers compile unchanged.
type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
	Logger    *zap.Logger
}

// FastEmbedProvider is never constructed without cgo.
type FastEmbedProvider struct {
	unavailable
}

// NewFastEmbedProvider always fails with ErrFastEmbedNotAvailable.
func NewFastEmbedProvider(context.Context, FastEmbedConfig) (*FastEmbedProvider, error) {
	return nil, ErrFastEmbedNotAvailable
}

type unavailable struct{}

func (unavailable) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (unavailable) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (unavailable) Dimension() int { return 0 }

func (unavailable) Close() error { return nil }
