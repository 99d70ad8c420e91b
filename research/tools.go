package research

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
)

const (
	WebSearchToolName = "web_search"
	FetchPageToolName = "fetch_page"
)

// NewWebSearchTool returns the web_search tool.
func NewWebSearchTool(s Searcher) tool.Tool {
	return tool.NewFunctionTool(
		WebSearchToolName,
		"Search the web for information. Returns search results with titles, links, and snippets.",
		[]tool.Param{tool.Required("query", "string", "The search query to look up on the web")},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			query := args.String("query")
			resp, err := s.Search(tc.Context(), query)
			if errors.Is(err, ErrMissingAPIKey) {
				tc.LogWarn("research.search.no_api_key", "agent", tc.AgentName())
				return map[string]any{
					"status":     "error",
					"message":    "SERPERDEV_API_KEY not set. Please configure your SerperDev API key in .env file.",
					"suggestion": "Get a free API key at https://serper.dev and add to .env: SERPERDEV_API_KEY=your_key",
				}, nil
			}
			if err != nil {
				tc.LogError("research.search.error", "query", query, "error", err.Error())
				return map[string]any{
					"status":  "error",
					"message": fmt.Sprintf("Error performing web search: %v", err),
				}, nil
			}
			if len(resp.Results) == 0 {
				return map[string]any{
					"status":  "success",
					"message": "No results found for: " + query,
					"results": []Result{},
				}, nil
			}
			return map[string]any{
				"status":       "success",
				"query":        resp.Query,
				"result_count": len(resp.Results),
				"results":      resp.Results,
				"all_links":    resp.Links,
			}, nil
		},
	)
}

// NewFetchPageTool returns the fetch_page tool.
func NewFetchPageTool(f *Fetcher) tool.Tool {
	return tool.NewFunctionTool(
		FetchPageToolName,
		"Fetch a web page and return its readable text content.",
		[]tool.Param{tool.Required("url", "string", "The URL of the page to fetch")},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			page, err := f.Fetch(tc.Context(), args.String("url"))
			if err != nil {
				tc.LogWarn("research.fetch.error", "url", args.String("url"), "error", err.Error())
				return map[string]any{
					"status":  "error",
					"message": fmt.Sprintf("Error fetching page: %v", err),
				}, nil
			}
			return map[string]any{
				"status":    "success",
				"url":       page.URL,
				"title":     page.Title,
				"content":   page.Content,
				"truncated": page.Truncated,
			}, nil
		},
	)
}

// Tools returns web_search and fetch_page.
func Tools(s Searcher, f *Fetcher) []tool.Tool {
	return []tool.Tool{NewWebSearchTool(s), NewFetchPageTool(f)}
}
