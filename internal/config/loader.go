package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// includeKey splits a deployment's routing, business-type map, or model
// section into a separate file that $include pulls in and merges over the
// parent document.
const includeKey = "$include"

// MaxIncludeDepth bounds how deep a chain of $include files can nest,
// independent of the cycle check below; it exists so a typo'd include chain
// fails fast with a clear error instead of recursing until the OS file
// descriptor limit is hit.
const MaxIncludeDepth = 32

// LoadRaw reads path into a single merged map, resolving every $include
// directive it or its includes reference and expanding environment
// variables in the raw bytes before parsing.
func LoadRaw(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is required")
	}
	return (&includeResolver{visiting: map[string]bool{}}).resolve(path, 0)
}

// includeResolver tracks the include chain currently being resolved so a
// cycle (A includes B includes A) is reported instead of recursing forever.
type includeResolver struct {
	visiting map[string]bool
}

func (r *includeResolver) resolve(path string, depth int) (map[string]any, error) {
	if depth > MaxIncludeDepth {
		return nil, fmt.Errorf("config include chain exceeds max depth of %d", MaxIncludeDepth)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if r.visiting[absPath] {
		return nil, fmt.Errorf("config include cycle detected at %s", absPath)
	}
	r.visiting[absPath] = true
	defer delete(r.visiting, absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	raw, err := decodeDocument(os.ExpandEnv(string(data)), absPath)
	if err != nil {
		return nil, err
	}

	includes, err := popIncludes(raw)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	baseDir := filepath.Dir(absPath)
	for _, inc := range includes {
		if strings.TrimSpace(inc) == "" {
			continue
		}
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(baseDir, incPath)
		}
		incRaw, err := r.resolve(incPath, depth+1)
		if err != nil {
			return nil, err
		}
		merged = overlay(merged, incRaw)
	}

	return overlay(merged, raw), nil
}

// decodeDocument parses a single YAML or JSON5 document, chosen by the file
// extension in pathHint, and rejects anything but exactly one document.
func decodeDocument(text, pathHint string) (map[string]any, error) {
	ext := strings.ToLower(filepath.Ext(pathHint))
	if ext == ".json" || ext == ".json5" {
		var raw map[string]any
		if err := json5.Unmarshal([]byte(text), &raw); err != nil {
			return nil, err
		}
		if raw == nil {
			raw = map[string]any{}
		}
		return raw, nil
	}

	decoder := yaml.NewDecoder(strings.NewReader(text))
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}
	if err := decoder.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: expected single document")
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// popIncludes removes $include (or its bare "include" alias) from raw and
// returns the paths it named, in order.
func popIncludes(raw map[string]any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	val, ok := raw[includeKey]
	if !ok {
		val, ok = raw["include"]
		if ok {
			delete(raw, "include")
		}
	} else {
		delete(raw, includeKey)
	}
	if !ok {
		return nil, nil
	}

	switch typed := val.(type) {
	case string:
		return []string{typed}, nil
	case []string:
		return typed, nil
	case []any:
		paths := make([]string, 0, len(typed))
		for _, entry := range typed {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("include entries must be strings")
			}
			paths = append(paths, s)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("include must be a string or list of strings")
	}
}

// overlay merges src on top of dst, recursing into nested maps on both
// sides so an included file can override a single leaf key without
// clobbering its siblings.
func overlay(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, value := range src {
		if valueMap, ok := value.(map[string]any); ok {
			if existing, ok := dst[key].(map[string]any); ok {
				dst[key] = overlay(existing, valueMap)
				continue
			}
		}
		dst[key] = value
	}
	return dst
}

// decodeRawConfig strict-decodes a merged raw map into Config, rejecting any
// key that doesn't correspond to a known field so a typo'd config key fails
// at load time rather than silently being ignored.
func decodeRawConfig(raw map[string]any) (*Config, error) {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: expected single document")
	}
	return &cfg, nil
}
