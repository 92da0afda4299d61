package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrInvalidQuery indicates an empty query or a non-positive result count.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrConnectionFailed indicates the backend could not be reached.
	ErrConnectionFailed = errors.New("failed to connect to vector store")
)

// Embedder generates vector embeddings from text.
//
// Implementations can use local models (fastembed), a self-hosted service
// (TEI) or a cloud API (OpenAI).
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is one collection of a vector database.
//
// Implementations:
//   - ChromemStore: Embedded chromem-go (default)
//   - QdrantStore: External Qdrant gRPC client
type Store interface {
	// AddDocuments embeds and upserts documents into the collection.
	// Documents with an existing ID replace the stored one.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Query returns up to nResults documents most similar to text.
	// An empty collection yields an empty result, not an error.
	Query(ctx context.Context, text string, nResults int) (*QueryResult, error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int, error)

	// Collection returns the collection name.
	Collection() string

	// Close releases resources held by the store.
	Close() error
}
