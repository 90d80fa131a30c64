// Package rag provides the retrieval tool backed by an embedding client
// (C1) and a vector index client (C2).
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/internal/memory/embeddings"
	"github.com/ragagent/ragagent/internal/vectorstore"
)

// SearchTool implements the searchKnowledge tool: embed the query, run a
// nearest-neighbour search, and format matches clearing the score floor as
// plain text.
type SearchTool struct {
	embedder embeddings.Provider
	vectors  vectorstore.Client

	defaultMaxResults int
	minScore          float64
}

var _ agent.Tool = (*SearchTool)(nil)

// NewSearchTool constructs the retrieval tool. defaultMaxResults and
// minScore come from the configuration surface's vectorMaxResults and
// vectorMinScore.
func NewSearchTool(embedder embeddings.Provider, vectors vectorstore.Client, defaultMaxResults int, minScore float64) *SearchTool {
	if defaultMaxResults <= 0 {
		defaultMaxResults = 5
	}
	return &SearchTool{
		embedder:          embedder,
		vectors:           vectors,
		defaultMaxResults: defaultMaxResults,
		minScore:          minScore,
	}
}

func (t *SearchTool) Name() string { return "searchKnowledge" }

func (t *SearchTool) Description() string {
	return "Searches the indexed knowledge base for passages relevant to a query and returns them with their source filenames and similarity scores."
}

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "The search query"},
    "maxResults": {"type": "integer", "description": "Maximum number of passages to return (default 5)"}
  },
  "required": ["query"]
}`)
}

type searchInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// Execute embeds the query, searches the vector index, and renders matches
// clearing minScore as "[source=<filename>, score=<s>]\n<text>" blocks
// separated by a blank line.
func (t *SearchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input searchInput
	if err := json.Unmarshal(params, &input); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid parameters: %v", err), IsError: true}, nil
	}

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return &agent.ToolResult{Content: "query is required", IsError: true}, nil
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = t.defaultMaxResults
	}

	vector, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("embedding failed: %v", err), IsError: true}, nil
	}

	segments, err := t.vectors.Search(ctx, vector, maxResults, t.minScore)
	if err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("vector search failed: %v", err), IsError: true}, nil
	}

	if len(segments) == 0 {
		return &agent.ToolResult{Content: fmt.Sprintf("no passages found for query: %q", query)}, nil
	}

	blocks := make([]string, 0, len(segments))
	for _, seg := range segments {
		source := seg.Metadata.Filename
		if source == "" {
			source = seg.Metadata.DocumentID
		}
		blocks = append(blocks, fmt.Sprintf("[source=%s, score=%s]\n%s", source, strconv.FormatFloat(seg.Score, 'f', 2, 64), seg.Text))
	}

	return &agent.ToolResult{Content: strings.Join(blocks, "\n\n")}, nil
}
