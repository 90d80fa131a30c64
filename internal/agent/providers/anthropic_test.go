package providers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/pkg/models"
)

func TestNewAnthropicProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropicProvider(AnthropicConfig{}); err == nil {
		t.Fatal("expected error when API key is empty")
	}
}

func TestNewAnthropicProvider_Defaults(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider error: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Fatalf("got name %q, want anthropic", p.Name())
	}
	if !p.SupportsTools() {
		t.Fatal("expected SupportsTools to be true")
	}
	models := p.Models()
	if len(models) != 1 || models[0].ID != "claude-sonnet-4-20250514" {
		t.Fatalf("unexpected default models: %+v", models)
	}
}

func TestConvertToAnthropicMessages_SkipsSystemAndEmptyTurns(t *testing.T) {
	msgs := []agent.CompletionMessage{
		{Role: "system", Content: "you are a helpful assistant"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: ""},
	}
	converted, err := convertToAnthropicMessages(msgs)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages error: %v", err)
	}
	if len(converted) != 1 {
		t.Fatalf("got %d messages, want 1 (system dropped, empty assistant turn dropped)", len(converted))
	}
}

func TestConvertToAnthropicMessages_RejectsMalformedToolInput(t *testing.T) {
	msgs := []agent.CompletionMessage{
		{
			Role: "assistant",
			ToolCalls: []models.ToolCall{
				{ID: "call-1", Name: "calculate", Input: json.RawMessage(`not-json`)},
			},
		},
	}
	if _, err := convertToAnthropicMessages(msgs); err == nil {
		t.Fatal("expected error for malformed tool call input")
	}
}

func TestConvertToAnthropicTools_RejectsInvalidSchema(t *testing.T) {
	tools := []agent.Tool{badSchemaTool{}}
	if _, err := convertToAnthropicTools(tools); err == nil {
		t.Fatal("expected error for invalid tool schema")
	}
}

type badSchemaTool struct{}

func (badSchemaTool) Name() string        { return "broken" }
func (badSchemaTool) Description() string { return "a tool with an invalid schema" }
func (badSchemaTool) Schema() json.RawMessage {
	return json.RawMessage(`"not an object"`)
}
func (badSchemaTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	return nil, nil
}
