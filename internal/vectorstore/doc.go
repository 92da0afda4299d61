// Package vectorstore provides the vector store collaborator used by locable.
//
// A Store wraps one collection of an external vector database. Indexing,
// persistence formats and ranking are owned by the backend; this package only
// adapts them to a single, narrow contract:
//
//	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
//	    Path:       "/srv/project/data/chroma",
//	    Collection: "bootstrap",
//	}, embedder, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	result, err := store.Query(ctx, "container class css", 3)
//
// # Backends
//
//   - ChromemStore: embedded chromem-go database persisted to a directory
//     (default). The directory is created when missing.
//   - QdrantStore: external Qdrant server over gRPC.
//
// # Results
//
// Query returns a QueryResult in the columnar shape Chroma uses (ids,
// documents, metadatas, distances), one row per match, most similar first.
// QueryResult.Matches gives a row-oriented view.
//
// # Collection names
//
// Collection names are 3-63 characters from [a-zA-Z0-9._-] and must start
// and end with an alphanumeric character. ValidateCollectionName enforces
// this before any backend call.
package vectorstore
