// Package misc provides the agent's trivial stub tools, kept for contract
// stability rather than real-world usefulness.
package misc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ragagent/ragagent/internal/agent"
)

// CurrentTimeTool implements getCurrentTime.
type CurrentTimeTool struct {
	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

var _ agent.Tool = CurrentTimeTool{}

func (t CurrentTimeTool) Name() string        { return "getCurrentTime" }
func (t CurrentTimeTool) Description() string { return "Returns the current UTC time in RFC3339 format." }
func (t CurrentTimeTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t CurrentTimeTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	now := t.Now
	if now == nil {
		now = time.Now
	}
	return &agent.ToolResult{Content: now().UTC().Format(time.RFC3339)}, nil
}

// WeatherTool implements getWeather, a stub that always reports a fixed
// condition since no real forecast provider is wired.
type WeatherTool struct{}

var _ agent.Tool = WeatherTool{}

func (WeatherTool) Name() string        { return "getWeather" }
func (WeatherTool) Description() string { return "Returns a placeholder weather report for a city." }
func (WeatherTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"city": {"type": "string"}},
  "required": ["city"]
}`)
}

func (WeatherTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid parameters: %v", err), IsError: true}, nil
	}
	if input.City == "" {
		return &agent.ToolResult{Content: "city is required", IsError: true}, nil
	}
	return &agent.ToolResult{Content: fmt.Sprintf("%s: 22°C, partly cloudy (stub data, no forecast provider is configured)", input.City)}, nil
}
