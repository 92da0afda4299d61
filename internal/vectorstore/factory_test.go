package vectorstore_test

import (
	"path/filepath"
	"testing"

	"github.com/locable/locable/internal/config"
	"github.com/locable/locable/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStore_Chromem(t *testing.T) {
	cfg := config.Default()
	dir := filepath.Join(t.TempDir(), "data", "chroma")

	store, err := vectorstore.NewStore(cfg, dir, &chromemTestEmbedder{vectorSize: 16}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &vectorstore.ChromemStore{}, store)
	assert.Equal(t, config.DefaultCollection, store.Collection())
	assert.DirExists(t, dir)
}

func TestNewStore_InvalidCollection(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Collection = "a"

	_, err := vectorstore.NewStore(cfg, t.TempDir(), &chromemTestEmbedder{vectorSize: 16}, zap.NewNop())
	assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
}

func TestNewStore_UnsupportedProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Provider = "pinecone"

	_, err := vectorstore.NewStore(cfg, t.TempDir(), &chromemTestEmbedder{vectorSize: 16}, zap.NewNop())
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pinecone")
}
