package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ConversationPrefixChat marks a conversation created outside the agent loop.
const ConversationPrefixChat = "chat-"

// ConversationPrefixAgent marks a conversation created by the agent loop.
const ConversationPrefixAgent = "agent-"

// Message is one immutable row in a conversation's append-only log.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId,omitempty"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Sources        []Source  `json:"sources,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Source is one retrieval provenance entry attached to an assistant message
// produced with retrieval.
type Source struct {
	Filename string  `json:"filename"`
	Excerpt  string  `json:"excerpt"`
	Score    float64 `json:"score"`
}

// IsAgentConversation reports whether id carries the agent-turn prefix.
func IsAgentConversation(id string) bool {
	return strings.HasPrefix(id, ConversationPrefixAgent)
}

// IsChatConversation reports whether id carries the non-agent prefix.
func IsChatConversation(id string) bool {
	return strings.HasPrefix(id, ConversationPrefixChat)
}

// NewAgentConversationID mints a fresh agent-prefixed conversation id.
func NewAgentConversationID(suffix string) string {
	return ConversationPrefixAgent + suffix
}

// ToolCall represents a model's request to execute a tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult represents the output of a tool execution.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// ToolCallStatus is the lifecycle state of one tool invocation record.
type ToolCallStatus string

const (
	ToolCallStarted   ToolCallStatus = "STARTED"
	ToolCallCompleted ToolCallStatus = "COMPLETED"
	ToolCallFailed    ToolCallStatus = "FAILED"
)

// ToolCallRecord is an observability record of one tool invocation within a
// turn. It is emitted via a request-scoped sink and is not persisted by
// default.
type ToolCallRecord struct {
	Step       int             `json:"step"`
	ToolName   string          `json:"toolName"`
	Input      json.RawMessage `json:"input,omitempty"`
	Result     string          `json:"result,omitempty"`
	DurationMs int64           `json:"durationMs"`
	Status     ToolCallStatus  `json:"status"`
}

// VectorSegment is a retrieval result returned from the vector index client.
type VectorSegment struct {
	Text     string              `json:"text"`
	Metadata VectorSegmentMeta   `json:"metadata"`
	Score    float64             `json:"score"`
}

// VectorSegmentMeta is the optional provenance attached to a VectorSegment.
type VectorSegmentMeta struct {
	Filename    string `json:"filename,omitempty"`
	DocumentID  string `json:"documentId,omitempty"`
	ChunkIndex  int    `json:"chunkIndex,omitempty"`
}

// BusinessType is the router's coarse classification of a user message.
type BusinessType string

const (
	BusinessComplexQuery  BusinessType = "COMPLEX_QUERY"
	BusinessLongContext   BusinessType = "LONG_CONTEXT"
	BusinessHighPrecision BusinessType = "HIGH_PRECISION"
	BusinessSimpleQA      BusinessType = "SIMPLE_QA"
	BusinessToolCalling   BusinessType = "TOOL_CALLING"
	BusinessGeneralChat   BusinessType = "GENERAL_CHAT"
)

// RoutingDecision is produced by the router once per request; it is never
// persisted.
type RoutingDecision struct {
	ModelID      string       `json:"modelId"`
	BusinessType BusinessType `json:"businessType,omitempty"`
	Reason       string       `json:"reason"`
}
