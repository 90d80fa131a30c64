package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragagent/ragagent/internal/agent"
)

// Resolver enforces the path-safety invariant shared by every file tool:
// let A = normalise(allowedDirectory) and R = normalise(A.resolve(path)); if
// R is not a descendant of A, resolution fails with a path-escape error and
// produces no side effects.
type Resolver struct {
	AllowedDirectory string
}

// Resolve returns the absolute, cleaned path of path within the allowed
// directory, or an *agent.Error of kind ErrPathEscape if it would escape.
func (r Resolver) Resolve(path string) (string, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return "", agent.InvalidInput("path is required")
	}

	allowed := strings.TrimSpace(r.AllowedDirectory)
	if allowed == "" {
		allowed = "."
	}
	allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
	if err != nil {
		return "", fmt.Errorf("resolve allowed directory: %w", err)
	}

	var target string
	if filepath.IsAbs(clean) {
		target = filepath.Clean(clean)
	} else {
		target = filepath.Join(allowedAbs, clean)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	rel, err := filepath.Rel(allowedAbs, targetAbs)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", agent.PathEscape(path)
	}
	return targetAbs, nil
}
