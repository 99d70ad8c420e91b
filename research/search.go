package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultSerperURL is the Serper search endpoint.
	DefaultSerperURL = "https://google.serper.dev/search"
	// DefaultTopK is the number of results returned per search.
	DefaultTopK = 5

	maxSnippet = 300
	maxLinks   = 10
)

// ErrMissingAPIKey is returned when no Serper API key is configured.
var ErrMissingAPIKey = errors.New("SERPERDEV_API_KEY not set")

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Response is the outcome of one search.
type Response struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Links   []string `json:"all_links,omitempty"`
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string) (Response, error)
}

// SerperOptions configures SerperClient.
type SerperOptions struct {
	APIKey     string
	Endpoint   string
	TopK       int
	HTTPClient *http.Client
	CacheSize  int
}

// SerperClient queries the Serper Google search API. Responses are cached by query.
type SerperClient struct {
	opts  SerperOptions
	cache *lru.Cache[string, Response]
}

// NewSerperClient creates a client; an empty APIKey makes every search fail
// with ErrMissingAPIKey.
func NewSerperClient(optFns ...func(o *SerperOptions)) *SerperClient {
	opts := SerperOptions{
		Endpoint:   DefaultSerperURL,
		TopK:       DefaultTopK,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		CacheSize:  128,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	cache, _ := lru.New[string, Response](opts.CacheSize)
	return &SerperClient{opts: opts, cache: cache}
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search implements Searcher.
func (c *SerperClient) Search(ctx context.Context, query string) (Response, error) {
	if c.opts.APIKey == "" {
		return Response{}, ErrMissingAPIKey
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, errors.New("query cannot be empty")
	}
	if cached, ok := c.cache.Get(query); ok {
		return cached, nil
	}

	body, err := json.Marshal(map[string]any{"q": query, "num": c.opts.TopK})
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("serper request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("serper API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded serperResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	out := Response{Query: query, Results: []Result{}}
	for i, o := range decoded.Organic {
		if len(out.Links) < maxLinks && o.Link != "" {
			out.Links = append(out.Links, o.Link)
		}
		if i >= c.opts.TopK {
			continue
		}
		out.Results = append(out.Results, Result{
			Title:   orDefault(o.Title, "No title"),
			Link:    orDefault(o.Link, "No link"),
			Snippet: orDefault(truncate(o.Snippet, maxSnippet), "No content available"),
		})
	}
	c.cache.Add(query, out)

	return out, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
