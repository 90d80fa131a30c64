package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ragagent/ragagent/internal/agent"
)

// ListDirectoryTool implements listDirectory: one line per entry, with a
// kind marker and size for files.
type ListDirectoryTool struct {
	resolver Resolver
}

var _ agent.Tool = (*ListDirectoryTool)(nil)

func NewListDirectoryTool(cfg Config) *ListDirectoryTool {
	return &ListDirectoryTool{resolver: cfg.resolver()}
}

func (t *ListDirectoryTool) Name() string { return "listDirectory" }
func (t *ListDirectoryTool) Description() string {
	return "Lists the entries of a directory under the allowed directory."
}

func (t *ListDirectoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"path": {"type": "string", "description": "Path relative to the allowed directory"}},
  "required": ["path"]
}`)
}

func (t *ListDirectoryTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolErrorFor(err), nil
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return toolError(fmt.Sprintf("list directory: %v", err)), nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var lines []string
	for _, entry := range entries {
		if entry.IsDir() {
			lines = append(lines, fmt.Sprintf("[dir]  %s", entry.Name()))
			continue
		}
		info, err := entry.Info()
		size := int64(0)
		if err == nil {
			size = info.Size()
		}
		lines = append(lines, fmt.Sprintf("[file] %s (%d bytes)", entry.Name(), size))
	}
	if len(lines) == 0 {
		return &agent.ToolResult{Content: fmt.Sprintf("%s is empty", filepath.Clean(input.Path))}, nil
	}
	return &agent.ToolResult{Content: strings.Join(lines, "\n")}, nil
}
