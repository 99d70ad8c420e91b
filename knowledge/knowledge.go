package knowledge

import (
	"context"
	"errors"
)

// ErrEmptyContent is returned when a document without text is stored.
var ErrEmptyContent = errors.New("text content cannot be empty")

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Document is a piece of text to be stored.
type Document struct {
	Content string
	// Source describes where the text came from (file name, URL, ...).
	Source   string
	Metadata map[string]string
	// ChunkSize and ChunkOverlap override the store's chunker when positive.
	ChunkSize    int
	ChunkOverlap int
}

// StoreResult reports what Store persisted.
type StoreResult struct {
	Source string   `json:"source"`
	Chunks int      `json:"chunks_processed"`
	IDs    []string `json:"ids,omitempty"`
}

// Hit is a retrieved chunk.
type Hit struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Source   string            `json:"source,omitempty"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Store persists documents and answers natural language queries.
type Store interface {
	Store(ctx context.Context, doc Document) (StoreResult, error)
	Query(ctx context.Context, query string, topK int) ([]Hit, error)
}

const (
	// DefaultTopK is the number of hits returned when topK is not positive.
	DefaultTopK = 5

	metaSource = "source"
	metaChunk  = "chunk"
)

func cloneMetadata(src map[string]string) map[string]string {
	out := make(map[string]string, len(src)+2)
	for k, v := range src {
		out[k] = v
	}
	return out
}
