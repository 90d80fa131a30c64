package files

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragagent/ragagent/internal/agent"
)

// SearchFilesTool implements searchFiles: a recursive walk matching on
// filename substring (case-insensitive) and, for small files, on content
// substring. Unreadable entries are skipped rather than aborting the walk.
type SearchFilesTool struct {
	resolver     Resolver
	maxScanBytes int64
}

var _ agent.Tool = (*SearchFilesTool)(nil)

func NewSearchFilesTool(cfg Config) *SearchFilesTool {
	limit := cfg.MaxSearchBytes
	if limit <= 0 {
		limit = defaultMaxSearchBytes
	}
	return &SearchFilesTool{resolver: cfg.resolver(), maxScanBytes: int64(limit)}
}

func (t *SearchFilesTool) Name() string { return "searchFiles" }
func (t *SearchFilesTool) Description() string {
	return "Recursively searches file names and small file contents under the allowed directory for a keyword."
}

func (t *SearchFilesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "keyword": {"type": "string", "description": "Substring to search for, case-insensitive"},
    "path": {"type": "string", "description": "Directory to search, relative to the allowed directory"}
  },
  "required": ["keyword", "path"]
}`)
}

func (t *SearchFilesTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Keyword string `json:"keyword"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	keyword := strings.TrimSpace(input.Keyword)
	if keyword == "" {
		return toolError("keyword is required"), nil
	}

	root, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolErrorFor(err), nil
	}
	needle := strings.ToLower(keyword)

	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(strings.ToLower(d.Name()), needle) {
			matches = append(matches, rel)
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil || info.Size() > t.maxScanBytes {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if strings.Contains(strings.ToLower(string(content)), needle) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return toolError(fmt.Sprintf("search files: %v", err)), nil
	}

	if len(matches) == 0 {
		return &agent.ToolResult{Content: fmt.Sprintf("no files matched %q", keyword)}, nil
	}
	return &agent.ToolResult{Content: strings.Join(matches, "\n")}, nil
}
