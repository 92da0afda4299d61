package vectorstore

import (
	"fmt"

	"github.com/locable/locable/internal/config"
	"go.uber.org/zap"
)

// NewStore creates the Store selected by cfg.Store.Provider:
//   - "chromem" (default): embedded ChromemStore persisted under path
//   - "qdrant": QdrantStore against an external server
//
// path is the already resolved persistence directory; it is ignored by
// backends that do not persist locally.
func NewStore(cfg *config.Config, path string, embedder Embedder, logger *zap.Logger) (Store, error) {
	switch cfg.Store.Provider {
	case "chromem", "":
		return NewChromemStore(ChromemConfig{
			Path:       path,
			Collection: cfg.Store.Collection,
			Compress:   cfg.Store.Compress,
		}, embedder, logger)

	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:           cfg.Qdrant.Host,
			Port:           cfg.Qdrant.Port,
			CollectionName: cfg.Store.Collection,
			VectorSize:     uint64(cfg.Qdrant.VectorSize),
			UseTLS:         cfg.Qdrant.UseTLS,
			APIKey:         cfg.Qdrant.APIKey.Value(),
			MaxRetries:     cfg.Qdrant.MaxRetries,
			RetryBackoff:   cfg.Qdrant.RetryBackoff.Duration(),
		}, embedder, logger)

	default:
		return nil, fmt.Errorf("%w: unsupported vectorstore provider: %s (supported: chromem, qdrant)", ErrInvalidConfig, cfg.Store.Provider)
	}
}
