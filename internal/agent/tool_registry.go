package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ragagent/ragagent/internal/observability"
)

// ToolRegistry maps tool names to descriptors (C4). Tools are registered by
// name and looked up by the agent loop during a turn. Safe for concurrent
// use: registration happens once at process start, lookups happen on every
// request.
type ToolRegistry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
	metrics *observability.Metrics
}

// NewToolRegistry creates a new empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// SetMetrics attaches metrics collection to the registry. Executions before
// SetMetrics is called are simply not recorded.
func (r *ToolRegistry) SetMetrics(metrics *observability.Metrics) {
	r.metrics = metrics
}

// Register adds a tool to the registry by its name, replacing any existing
// tool registered under the same name. The tool's parameter schema is
// compiled eagerly so a malformed schema fails at wiring time rather than on
// the first model call that tries to use it.
func (r *ToolRegistry) Register(tool Tool) error {
	compiled, err := compileToolSchema(tool.Name(), tool.Schema())
	if err != nil {
		return fmt.Errorf("register tool %q: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
	r.schemas[tool.Name()] = compiled
	return nil
}

// MustRegister is Register, panicking on a schema compile failure. Intended
// for wiring code at process start where a broken built-in tool schema is a
// programmer error, not a runtime condition to recover from.
func (r *ToolRegistry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Unregister removes a tool from the registry by name.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

func compileToolSchema(name string, schema json.RawMessage) (*jsonschema.Schema, error) {
	return jsonschema.CompileString(name+".schema.json", string(schema))
}

// Get returns a tool by name and whether it was found.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Tool parameter limits guard against resource exhaustion from a
// misbehaving or malicious model reply.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 10 << 20
)

// Execute runs a tool by name with the given JSON parameters. A missing
// tool or oversized input produces an error ToolResult rather than a Go
// error, matching the tool-call contract: the loop re-enters the error
// string into memory instead of aborting the turn.
func (r *ToolRegistry) Execute(ctx context.Context, name string, params json.RawMessage) (*ToolResult, error) {
	start := time.Now()
	result, err := r.execute(ctx, name, params)

	status := "success"
	if err != nil || (result != nil && result.IsError) {
		status = "error"
	}
	r.metrics.RecordToolExecution(name, status, time.Since(start).Seconds())

	return result, err
}

func (r *ToolRegistry) execute(ctx context.Context, name string, params json.RawMessage) (*ToolResult, error) {
	if len(name) > MaxToolNameLength {
		return &ToolResult{Content: fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength), IsError: true}, nil
	}
	if len(params) > MaxToolParamsSize {
		return &ToolResult{Content: fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize), IsError: true}, nil
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return &ToolResult{Content: "tool not found: " + name, IsError: true}, nil
	}

	if schema != nil {
		if len(params) == 0 {
			params = json.RawMessage("{}")
		}
		var decoded any
		if err := json.Unmarshal(params, &decoded); err != nil {
			return &ToolResult{Content: ToolArgumentError(name, "arguments are not valid JSON: "+err.Error()), IsError: true}, nil
		}
		if err := schema.Validate(decoded); err != nil {
			return &ToolResult{Content: ToolArgumentError(name, err.Error()), IsError: true}, nil
		}
	}

	return tool.Execute(ctx, params)
}

// AsLLMTools returns all registered tools for passing to a chat provider.
func (r *ToolRegistry) AsLLMTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// Names returns the registered tool names, primarily for diagnostics and
// tests.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}
