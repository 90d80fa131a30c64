package agent

import (
	"context"
	"encoding/json"

	"github.com/ragagent/ragagent/pkg/models"
)

// LLMProvider is the uniform call surface over local and remote chat
// providers (C3). Implementations must be safe for concurrent use.
type LLMProvider interface {
	// Complete sends a prompt and returns a streaming response.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name returns the provider name, carried into the RoutingDecision.
	Name() string

	// Models returns available models.
	Models() []Model

	// SupportsTools returns whether the provider supports tool use.
	SupportsTools() bool
}

// CompletionRequest contains all parameters for one chat(memory, tools) call.
type CompletionRequest struct {
	Model     string               `json:"model"`
	System    string               `json:"system,omitempty"`
	Messages  []CompletionMessage  `json:"messages"`
	Tools     []Tool               `json:"tools,omitempty"`
	MaxTokens int                  `json:"max_tokens,omitempty"`
}

// CompletionMessage is one message in the chat memory window presented to a
// provider.
type CompletionMessage struct {
	Role        string              `json:"role"`
	Content     string              `json:"content,omitempty"`
	ToolCalls   []models.ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []models.ToolResult `json:"tool_results,omitempty"`
}

// CompletionChunk is one chunk of a streaming provider response.
type CompletionChunk struct {
	Text         string           `json:"text,omitempty"`
	ToolCall     *models.ToolCall `json:"tool_call,omitempty"`
	Done         bool             `json:"done,omitempty"`
	Error        error            `json:"-"`
	InputTokens  int              `json:"input_tokens,omitempty"`
	OutputTokens int              `json:"output_tokens,omitempty"`
}

// Model describes an available chat model.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContextSize int    `json:"context_size"`
}

// Tool is a named, schema-described function the model may invoke (C4).
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult is the output of one tool invocation.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// ResponseChunk is one event on the agent loop's output channel, consumed by
// the stream adapter (C9).
type ResponseChunk struct {
	Text      string                   `json:"text,omitempty"`
	Records   []models.ToolCallRecord  `json:"records,omitempty"`
	Done      bool                     `json:"done,omitempty"`
	Degraded  bool                     `json:"degraded,omitempty"`
	Error     error                    `json:"-"`
}
