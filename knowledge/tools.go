package knowledge

import (
	"fmt"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
)

const (
	UpdaterToolName   = "kg_updater"
	RetrieverToolName = "kg_retriever"
)

// NewUpdaterTool returns the kg_updater tool storing text in store.
func NewUpdaterTool(store Store) tool.Tool {
	return tool.NewFunctionTool(
		UpdaterToolName,
		"Process text and store it in the knowledge base so it can be retrieved later.",
		[]tool.Param{
			tool.Required("text_content", "string", "The raw text content to process and store"),
			tool.Required("source_info", "string", "Source identifier for the text (e.g. file name, URL, document title)"),
			tool.Optional("chunk_size", "integer", "Size of text chunks in tokens", DefaultChunkSize),
			tool.Optional("chunk_overlap", "integer", "Overlap between chunks in tokens", DefaultChunkOverlap),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			source := args.String("source_info")
			res, err := store.Store(tc.Context(), Document{
				Content:      args.String("text_content"),
				Source:       source,
				ChunkSize:    args.Int("chunk_size"),
				ChunkOverlap: args.Int("chunk_overlap"),
			})
			if err != nil {
				return map[string]any{
					"status":  "error",
					"message": fmt.Sprintf("Error in knowledge update pipeline: %v", err),
				}, nil
			}
			return map[string]any{
				"status":  "success",
				"message": "Successfully processed and stored knowledge",
				"details": map[string]any{
					"source":           source,
					"chunks_processed": res.Chunks,
				},
			}, nil
		},
	)
}

// NewRetrieverTool returns the kg_retriever tool querying store.
func NewRetrieverTool(store Store) tool.Tool {
	return tool.NewFunctionTool(
		RetrieverToolName,
		"Retrieve relevant knowledge for a natural language query using semantic search.",
		[]tool.Param{
			tool.Required("query", "string", "The natural language query to search the knowledge base"),
			tool.Optional("top_k", "integer", "Number of top results to return", DefaultTopK),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			query := args.String("query")
			hits, err := store.Query(tc.Context(), query, args.Int("top_k"))
			if err != nil {
				return map[string]any{
					"status":  "error",
					"message": fmt.Sprintf("Error retrieving from knowledge base: %v", err),
				}, nil
			}
			return map[string]any{
				"status":  "success",
				"message": fmt.Sprintf("Retrieved %d results from knowledge base", len(hits)),
				"query":   query,
				"results": hits,
			}, nil
		},
	)
}

// Tools returns kg_updater and kg_retriever bound to store.
func Tools(store Store) []tool.Tool {
	return []tool.Tool{NewUpdaterTool(store), NewRetrieverTool(store)}
}
