package knowledge

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedderOptions configures OpenAIEmbedder.
type OpenAIEmbedderOptions struct {
	Model     string
	APIKey    string
	BaseURL   string
	CacheSize int
}

// OpenAIEmbedder embeds text with the OpenAI embeddings API. Vectors are
// cached by text.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	cache  *lru.Cache[string, []float32]
}

// NewOpenAIEmbedder creates an embedder using text-embedding-3-small by default.
func NewOpenAIEmbedder(optFns ...func(o *OpenAIEmbedderOptions)) (*OpenAIEmbedder, error) {
	opts := OpenAIEmbedderOptions{
		Model:     string(openai.EmbeddingModelTextEmbedding3Small),
		CacheSize: 10000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)

	cache, err := lru.New[string, []float32](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &OpenAIEmbedder{client: &client, model: opts.Model, cache: cache}, nil
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements Embedder. Only texts missing from the cache are sent.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided")
	}

	results := make([][]float32, len(texts))
	var (
		missing []string
		indices []int
	)
	for i, text := range texts {
		if v, ok := e.cache.Get(text); ok {
			results[i] = v
			continue
		}
		missing = append(missing, text)
		indices = append(indices, i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: missing},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(missing) {
			return nil, fmt.Errorf("invalid embedding index %d", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for j, f := range item.Embedding {
			vec[j] = float32(f)
		}
		i := indices[item.Index]
		results[i] = vec
		e.cache.Add(texts[i], vec)
	}
	for i, v := range results {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return results, nil
}
