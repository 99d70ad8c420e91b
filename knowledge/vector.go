package knowledge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	chromem "github.com/philippgille/chromem-go"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

// VectorStoreOptions configures a VectorStore.
type VectorStoreOptions struct {
	// PersistDir keeps the collection on disk when set.
	PersistDir string
	Collection string
	Chunker    *Chunker
	// CacheSize bounds the query cache.
	CacheSize int
	Logger    logging.Logger
}

// VectorStore is a Store backed by a chromem-go collection.
type VectorStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	chunker    *Chunker
	cache      *lru.Cache[string, []Hit]
	logger     logging.Logger
}

// NewVectorStore creates (or opens) the collection and wires embedder into it.
func NewVectorStore(embedder Embedder, optFns ...func(o *VectorStoreOptions)) (*VectorStore, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	opts := VectorStoreOptions{
		Collection: "knowledge",
		CacheSize:  256,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Chunker == nil {
		opts.Chunker = NewChunker()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var (
		db  *chromem.DB
		err error
	)
	if opts.PersistDir != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(opts.PersistDir, "chromem"), false)
		if err != nil {
			return nil, fmt.Errorf("open persistent db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embed := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(opts.Collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	cache, err := lru.New[string, []Hit](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	return &VectorStore{
		db:         db,
		collection: collection,
		embedder:   embedder,
		chunker:    opts.Chunker,
		cache:      cache,
		logger:     opts.Logger,
	}, nil
}

// Store chunks doc, embeds the chunks in one batch and adds them to the collection.
func (s *VectorStore) Store(ctx context.Context, doc Document) (StoreResult, error) {
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
	chunks := s.chunker.SplitWith(doc.Content, size, overlap)

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return StoreResult{}, fmt.Errorf("embed chunks: %w", err)
	}

	docID := core.NewID("doc_")
	docs := make([]chromem.Document, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		meta := cloneMetadata(doc.Metadata)
		meta[metaSource] = doc.Source
		meta[metaChunk] = strconv.Itoa(i)
		ids[i] = docID + "_" + strconv.Itoa(i)
		docs[i] = chromem.Document{ID: ids[i], Content: chunk, Embedding: vectors[i], Metadata: meta}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return StoreResult{}, fmt.Errorf("add documents: %w", err)
	}
	s.cache.Purge()

	s.logger.Info("knowledge.store", "source", doc.Source, "chunks", len(chunks))

	return StoreResult{Source: doc.Source, Chunks: len(chunks), IDs: ids}, nil
}

// Query returns up to topK chunks ordered by similarity.
func (s *VectorStore) Query(ctx context.Context, query string, topK int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	key := strconv.Itoa(topK) + "\x00" + query
	if hits, ok := s.cache.Get(key); ok {
		return hits, nil
	}

	n := topK
	if count := s.collection.Count(); count < n {
		n = count
	}
	if n == 0 {
		return []Hit{}, nil
	}

	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:       r.ID,
			Content:  r.Content,
			Source:   r.Metadata[metaSource],
			Score:    r.Similarity,
			Metadata: r.Metadata,
		}
	}
	s.cache.Add(key, hits)

	return hits, nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count() int {
	return s.collection.Count()
}
