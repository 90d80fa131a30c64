package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ragagent/ragagent/internal/agent"
)

// Config controls filesystem tool defaults, all scoped to a single
// allowed directory.
type Config struct {
	AllowedDirectory string
	MaxReadChars     int
	MaxSearchBytes   int
}

func (c Config) resolver() Resolver { return Resolver{AllowedDirectory: c.AllowedDirectory} }

const defaultMaxReadChars = 5000
const defaultMaxSearchBytes = 100 * 1024

// ReadFileTool implements readFile: read UTF-8 content under the allowed
// directory, truncated to a configured maximum with a visible marker.
type ReadFileTool struct {
	resolver     Resolver
	maxReadChars int
}

var _ agent.Tool = (*ReadFileTool)(nil)

// NewReadFileTool constructs the readFile tool.
func NewReadFileTool(cfg Config) *ReadFileTool {
	limit := cfg.MaxReadChars
	if limit <= 0 {
		limit = defaultMaxReadChars
	}
	return &ReadFileTool{resolver: cfg.resolver(), maxReadChars: limit}
}

func (t *ReadFileTool) Name() string        { return "readFile" }
func (t *ReadFileTool) Description() string { return "Reads a UTF-8 text file under the allowed directory." }

func (t *ReadFileTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"path": {"type": "string", "description": "Path relative to the allowed directory"}},
  "required": ["path"]
}`)
}

func (t *ReadFileTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
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

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return toolError(fmt.Sprintf("read file: %v", err)), nil
	}

	content := string(raw)
	truncated := false
	if utf8.RuneCountInString(content) > t.maxReadChars {
		runes := []rune(content)
		content = string(runes[:t.maxReadChars])
		truncated = true
	}
	if truncated {
		content += "\n[... truncated]"
	}
	return &agent.ToolResult{Content: content}, nil
}

func toolError(message string) *agent.ToolResult {
	return &agent.ToolResult{Content: message, IsError: true}
}

// toolErrorFor renders a path-safety or validation error as a tool-error
// result, keeping the turn alive per the recovery policy.
func toolErrorFor(err error) *agent.ToolResult {
	if kind, ok := agent.KindOf(err); ok {
		return toolError(fmt.Sprintf("[%s] %s", kind, err.Error()))
	}
	return toolError(strings.TrimSpace(err.Error()))
}
