package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ragagent/ragagent/pkg/models"
)

// LoopConfig configures the agent loop's bounds.
type LoopConfig struct {
	// StepCap is K_steps, the maximum number of tool-calling iterations
	// before the loop degrades (default 8).
	StepCap int

	// ToolTimeout bounds a single tool invocation.
	ToolTimeout time.Duration

	Logger *slog.Logger
}

// DefaultLoopConfig returns the spec's defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		StepCap:     8,
		ToolTimeout: 30 * time.Second,
		Logger:      slog.Default(),
	}
}

func sanitizeLoopConfig(cfg LoopConfig) LoopConfig {
	if cfg.StepCap <= 0 {
		cfg.StepCap = 8
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Loop drives the tool-calling dialogue of one turn to a final assistant
// text (C8). Within a single request it is strictly sequential: tool calls
// never fan out.
type Loop struct {
	provider LLMProvider
	tools    *ToolRegistry
	config   LoopConfig
}

// NewLoop constructs an agent loop bound to one provider and tool registry.
func NewLoop(provider LLMProvider, tools *ToolRegistry, config LoopConfig) *Loop {
	return &Loop{provider: provider, tools: tools, config: sanitizeLoopConfig(config)}
}

// Result is the outcome of one completed turn.
type Result struct {
	Text     string
	Degraded bool
	Records  []models.ToolCallRecord
}

// Run executes the loop for one user message against memory, appending the
// user message, then alternating model calls and tool invocations until a
// final text is produced, the step cap is exceeded, or a provider error
// aborts the turn.
func (l *Loop) Run(ctx context.Context, model string, memory *Memory, userMessage string) (*Result, error) {
	memory.Append(CompletionMessage{Role: "user", Content: userMessage})

	result := &Result{}
	malformedRetries := 0
	toolTools := l.tools.AsLLMTools()

	for step := 0; ; step++ {
		if step >= l.config.StepCap {
			result.Text = DegradedApologyText
			result.Degraded = true
			memory.Append(CompletionMessage{Role: "assistant", Content: result.Text})
			return result, nil
		}

		req := &CompletionRequest{Model: model, Messages: memory.Messages(), Tools: toolTools}
		chunks, err := l.provider.Complete(ctx, req)
		if err != nil {
			return nil, classifyProviderError(l.provider.Name(), err)
		}

		text, toolCall, cerr := drainChunks(chunks)
		if cerr != nil {
			return nil, classifyProviderError(l.provider.Name(), cerr)
		}

		if toolCall == nil {
			if strings.TrimSpace(text) == "" {
				text = FallbackAssistantText
			}
			memory.Append(CompletionMessage{Role: "assistant", Content: text})
			result.Text = text
			return result, nil
		}

		if !validToolArgs(toolCall.Input) {
			malformedRetries++
			if malformedRetries > 1 {
				return nil, InvalidInput(ToolArgumentError(toolCall.Name, "arguments were not a JSON object after one retry"))
			}
			memory.Append(CompletionMessage{Role: "assistant", ToolCalls: []models.ToolCall{*toolCall}})
			memory.Append(CompletionMessage{
				Role:        "tool",
				ToolResults: []models.ToolResult{{ToolCallID: toolCall.ID, Content: ToolArgumentError(toolCall.Name, "arguments must be a JSON object matching the tool's schema"), IsError: true}},
			})
			continue
		}
		malformedRetries = 0

		started := time.Now()
		record := models.ToolCallRecord{Step: step + 1, ToolName: toolCall.Name, Input: toolCall.Input, Status: models.ToolCallStarted}
		result.Records = append(result.Records, record)

		toolCtx, cancel := context.WithTimeout(ctx, l.config.ToolTimeout)
		toolResult, err := l.tools.Execute(toolCtx, toolCall.Name, toolCall.Input)
		cancel()

		last := len(result.Records) - 1
		if err != nil || toolResult == nil {
			msg := "tool execution failed"
			if err != nil {
				msg = err.Error()
			}
			result.Records[last].Status = models.ToolCallFailed
			result.Records[last].Result = msg
			result.Records[last].DurationMs = time.Since(started).Milliseconds()
			memory.Append(CompletionMessage{Role: "assistant", ToolCalls: []models.ToolCall{*toolCall}})
			memory.Append(CompletionMessage{Role: "tool", ToolResults: []models.ToolResult{{ToolCallID: toolCall.ID, Content: msg, IsError: true}}})
			continue
		}

		result.Records[last].DurationMs = time.Since(started).Milliseconds()
		if toolResult.IsError {
			result.Records[last].Status = models.ToolCallFailed
		} else {
			result.Records[last].Status = models.ToolCallCompleted
		}
		result.Records[last].Result = toolResult.Content

		memory.Append(CompletionMessage{Role: "assistant", ToolCalls: []models.ToolCall{*toolCall}})
		memory.Append(CompletionMessage{
			Role:        "tool",
			ToolResults: []models.ToolResult{{ToolCallID: toolCall.ID, Content: toolResult.Content, IsError: toolResult.IsError}},
		})
	}
}

// validToolArgs reports whether raw looks like a JSON object, the shape the
// tool-call contract requires providers to emit.
func validToolArgs(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return false
	}
	var v map[string]any
	return json.Unmarshal([]byte(trimmed), &v) == nil
}

// drainChunks consumes a provider's streaming channel to completion,
// accumulating text and returning the single tool call request if one was
// emitted. Providers are contractually expected to emit either text or one
// tool call per turn, never both as a final reply.
func drainChunks(chunks <-chan *CompletionChunk) (string, *models.ToolCall, error) {
	var text strings.Builder
	var toolCall *models.ToolCall
	for chunk := range chunks {
		if chunk.Error != nil {
			return "", nil, chunk.Error
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
		}
		if chunk.ToolCall != nil {
			toolCall = chunk.ToolCall
		}
		if chunk.Done {
			break
		}
	}
	return text.String(), toolCall, nil
}

// classifyProviderError normalises a provider-originated error into one of
// this package's error kinds. An error a provider has already classified
// (e.g. via ClassifyError) passes through unchanged.
func classifyProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return ProviderTimeout(provider, err)
	}
	return ProviderRejected(provider, fmt.Errorf("%w", err))
}
