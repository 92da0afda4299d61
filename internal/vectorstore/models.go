package vectorstore

import (
	"fmt"
	"regexp"
)

// Document represents a document to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the text content of the document.
	Content string

	// Metadata contains additional key-value pairs (for example "source").
	Metadata map[string]interface{}
}

// QueryResult is the columnar result of a query, one row per match ordered
// by similarity (most similar first).
type QueryResult struct {
	IDs       []string                 `json:"ids" yaml:"ids"`
	Documents []string                 `json:"documents" yaml:"documents"`
	Metadatas []map[string]interface{} `json:"metadatas" yaml:"metadatas"`
	Distances []float32                `json:"distances" yaml:"distances"`
}

// Match is one row of a QueryResult.
type Match struct {
	ID       string                 `json:"id" yaml:"id"`
	Document string                 `json:"document" yaml:"document"`
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Distance float32                `json:"distance" yaml:"distance"`
}

// emptyResult returns a result with non-nil, zero-length columns so that it
// serializes as empty lists rather than null.
func emptyResult() *QueryResult {
	return &QueryResult{
		IDs:       []string{},
		Documents: []string{},
		Metadatas: []map[string]interface{}{},
		Distances: []float32{},
	}
}

// Len returns the number of rows.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}

// Matches returns the result as rows.
func (r *QueryResult) Matches() []Match {
	n := r.Len()
	matches := make([]Match, n)
	for i := 0; i < n; i++ {
		matches[i] = Match{ID: r.IDs[i]}
		if i < len(r.Documents) {
			matches[i].Document = r.Documents[i]
		}
		if i < len(r.Metadatas) {
			matches[i].Metadata = r.Metadatas[i]
		}
		if i < len(r.Distances) {
			matches[i].Distance = r.Distances[i]
		}
	}
	return matches
}

func (r *QueryResult) append(id, doc string, meta map[string]interface{}, distance float32) {
	r.IDs = append(r.IDs, id)
	r.Documents = append(r.Documents, doc)
	r.Metadatas = append(r.Metadatas, meta)
	r.Distances = append(r.Distances, distance)
}

// collectionNamePattern: 3-63 characters, alphanumeric at both ends.
var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{1,61}[a-zA-Z0-9]$`)

// ValidateCollectionName validates a collection name.
// Rejects: path separators, spaces, consecutive dots, leading/trailing
// punctuation, names shorter than 3 or longer than 63 characters.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must be 3-63 characters of [a-zA-Z0-9._-] starting and ending alphanumeric, got %q", ErrInvalidCollectionName, name)
	}
	for i := 1; i < len(name); i++ {
		if name[i] == '.' && name[i-1] == '.' {
			return fmt.Errorf("%w: collection name cannot contain \"..\", got %q", ErrInvalidCollectionName, name)
		}
	}
	return nil
}

// validateQuery checks the arguments shared by every Query implementation.
func validateQuery(text string, nResults int) error {
	if text == "" {
		return fmt.Errorf("%w: query text cannot be empty", ErrInvalidQuery)
	}
	if nResults <= 0 {
		return fmt.Errorf("%w: n_results must be positive, got %d", ErrInvalidQuery, nResults)
	}
	return nil
}
