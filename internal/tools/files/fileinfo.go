package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ragagent/ragagent/internal/agent"
)

// GetFileInfoTool implements getFileInfo: name, absolute path, size, kind,
// extension.
type GetFileInfoTool struct {
	resolver Resolver
}

var _ agent.Tool = (*GetFileInfoTool)(nil)

func NewGetFileInfoTool(cfg Config) *GetFileInfoTool {
	return &GetFileInfoTool{resolver: cfg.resolver()}
}

func (t *GetFileInfoTool) Name() string { return "getFileInfo" }
func (t *GetFileInfoTool) Description() string {
	return "Returns name, absolute path, size, kind, and extension for a path under the allowed directory."
}

func (t *GetFileInfoTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"path": {"type": "string", "description": "Path relative to the allowed directory"}},
  "required": ["path"]
}`)
}

func (t *GetFileInfoTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
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

	info, err := os.Stat(resolved)
	if err != nil {
		return toolError(fmt.Sprintf("stat path: %v", err)), nil
	}

	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	ext := filepath.Ext(info.Name())

	payload := map[string]any{
		"name": info.Name(),
		"path": resolved,
		"size": info.Size(),
		"kind": kind,
		"ext":  ext,
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(out)}, nil
}
