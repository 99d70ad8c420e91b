package knowledge

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/agentcrew/core"
)

type memoryChunk struct {
	id       string
	content  string
	lower    string
	metadata map[string]string
}

// MemoryStore keeps chunks in memory and ranks them by the share of query
// terms they contain.
type MemoryStore struct {
	mu      sync.RWMutex
	chunker *Chunker
	chunks  []memoryChunk
}

// NewMemoryStore returns an empty store. A nil chunker uses word tokens with
// the default window.
func NewMemoryStore(chunker *Chunker) *MemoryStore {
	if chunker == nil {
		chunker = &Chunker{Tokenizer: WordTokenizer{}, Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
	}
	return &MemoryStore{chunker: chunker}
}

// Store implements Store.
func (s *MemoryStore) Store(_ context.Context, doc Document) (StoreResult, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return StoreResult{}, ErrEmptyContent
	}

	size, overlap := s.chunker.Size, s.chunker.Overlap
	if doc.ChunkSize > 0 {
		size = doc.ChunkSize
	}
	if doc.ChunkOverlap > 0 {
		overlap = doc.ChunkOverlap
	}
	parts := s.chunker.SplitWith(doc.Content, size, overlap)

	docID := core.NewID("doc_")
	ids := make([]string, len(parts))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, part := range parts {
		meta := cloneMetadata(doc.Metadata)
		meta[metaSource] = doc.Source
		meta[metaChunk] = strconv.Itoa(i)
		ids[i] = docID + "_" + strconv.Itoa(i)
		s.chunks = append(s.chunks, memoryChunk{id: ids[i], content: part, lower: strings.ToLower(part), metadata: meta})
	}

	return StoreResult{Source: doc.Source, Chunks: len(parts), IDs: ids}, nil
}

// Query implements Store. Chunks without any matching term are not returned.
func (s *MemoryStore) Query(_ context.Context, query string, topK int) ([]Hit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := []Hit{}
	for _, c := range s.chunks {
		matched := 0
		for _, term := range terms {
			if strings.Contains(c.lower, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, Hit{
			ID:       c.id,
			Content:  c.content,
			Source:   c.metadata[metaSource],
			Score:    float32(matched) / float32(len(terms)),
			Metadata: c.metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
