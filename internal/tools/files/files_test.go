package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ragagent/ragagent/internal/agent"
)

func TestResolverRejectsEscape(t *testing.T) {
	root := t.TempDir()
	resolver := Resolver{AllowedDirectory: root}
	_, err := resolver.Resolve("../outside.txt")
	if err == nil {
		t.Fatal("expected escape to be rejected")
	}
	if kind, ok := agent.KindOf(err); !ok || kind != agent.ErrPathEscape {
		t.Fatalf("expected ErrPathEscape, got %v", err)
	}
}

func TestReadFileTool_TruncatesWithMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte(strings.Repeat("a", 20)), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tool := NewReadFileTool(Config{AllowedDirectory: root, MaxReadChars: 5})
	params, _ := json.Marshal(map[string]string{"path": "notes.txt"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !strings.Contains(result.Content, "[... truncated]") {
		t.Fatalf("expected truncation marker, got %q", result.Content)
	}
}

func TestReadFileTool_RejectsEscape(t *testing.T) {
	root := t.TempDir()
	tool := NewReadFileTool(Config{AllowedDirectory: root})
	params, _ := json.Marshal(map[string]string{"path": "../secret.txt"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for path escape")
	}
}

func TestListDirectoryTool_ListsEntriesWithKindAndSize(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}

	tool := NewListDirectoryTool(Config{AllowedDirectory: root})
	params, _ := json.Marshal(map[string]string{"path": "."})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !strings.Contains(result.Content, "[file] a.txt (5 bytes)") {
		t.Fatalf("expected file entry, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "[dir]  sub") {
		t.Fatalf("expected dir entry, got %q", result.Content)
	}
}

func TestSearchFilesTool_MatchesFilenameAndContent(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "budget.txt"), []byte("irrelevant"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("mentions IRR calculation"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tool := NewSearchFilesTool(Config{AllowedDirectory: root})
	params, _ := json.Marshal(map[string]string{"keyword": "irr", "path": "."})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !strings.Contains(result.Content, "budget.txt") {
		t.Fatalf("expected filename match, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "notes.txt") {
		t.Fatalf("expected content match, got %q", result.Content)
	}
}

func TestGetFileInfoTool_ReportsKindAndExtension(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "data.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tool := NewGetFileInfoTool(Config{AllowedDirectory: root})
	params, _ := json.Marshal(map[string]string{"path": "data.json"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	var payload struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
		Ext  string `json:"ext"`
		Size int64  `json:"size"`
	}
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if payload.Name != "data.json" || payload.Kind != "file" || payload.Ext != ".json" || payload.Size != 2 {
		t.Fatalf("unexpected info: %+v", payload)
	}
}
