package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRole_Constants(t *testing.T) {
	tests := []struct {
		constant Role
		expected string
	}{
		{RoleUser, "user"},
		{RoleAssistant, "assistant"},
		{RoleTool, "tool"},
	}
	for _, tt := range tests {
		if string(tt.constant) != tt.expected {
			t.Errorf("constant = %q, want %q", tt.constant, tt.expected)
		}
	}
}

func TestConversationPrefixes(t *testing.T) {
	if !IsAgentConversation("agent-abc123") {
		t.Error("expected agent- prefixed id to be an agent conversation")
	}
	if IsAgentConversation("chat-abc123") {
		t.Error("chat- prefixed id must not classify as agent conversation")
	}
	if !IsChatConversation("chat-abc123") {
		t.Error("expected chat- prefixed id to be a chat conversation")
	}
	if got := NewAgentConversationID("xyz"); got != "agent-xyz" {
		t.Errorf("NewAgentConversationID = %q, want %q", got, "agent-xyz")
	}
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	original := Message{
		ID:             42,
		ConversationID: "agent-123",
		UserID:         "user-1",
		Role:           RoleAssistant,
		Content:        "hello",
		Sources:        []Source{{Filename: "doc.txt", Excerpt: "excerpt", Score: 0.9}},
		CreatedAt:      now,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID = %v, want %v", decoded.ID, original.ID)
	}
	if decoded.ConversationID != original.ConversationID {
		t.Errorf("ConversationID = %q, want %q", decoded.ConversationID, original.ConversationID)
	}
	if len(decoded.Sources) != 1 || decoded.Sources[0].Filename != "doc.txt" {
		t.Errorf("Sources = %+v, want one entry for doc.txt", decoded.Sources)
	}
}

func TestToolCall_Struct(t *testing.T) {
	tc := ToolCall{
		ID:    "tc-123",
		Name:  "searchKnowledge",
		Input: json.RawMessage(`{"query": "test query"}`),
	}
	if tc.Name != "searchKnowledge" {
		t.Errorf("Name = %q, want %q", tc.Name, "searchKnowledge")
	}
}

func TestToolResult_Struct(t *testing.T) {
	tr := ToolResult{ToolCallID: "tc-123", Content: "ok", IsError: false}
	if tr.IsError {
		t.Error("IsError should be false")
	}
	trError := ToolResult{ToolCallID: "tc-456", Content: "boom", IsError: true}
	if !trError.IsError {
		t.Error("IsError should be true")
	}
}

func TestToolCallRecord_Struct(t *testing.T) {
	rec := ToolCallRecord{
		Step:       1,
		ToolName:   "searchKnowledge",
		Input:      json.RawMessage(`{"query":"hi"}`),
		Result:     "no matches",
		DurationMs: 12,
		Status:     ToolCallCompleted,
	}
	if rec.Status != ToolCallCompleted {
		t.Errorf("Status = %v, want %v", rec.Status, ToolCallCompleted)
	}
}

func TestVectorSegment_ScoreRange(t *testing.T) {
	seg := VectorSegment{Text: "body", Metadata: VectorSegmentMeta{Filename: "f.txt"}, Score: 0.87}
	if seg.Score < 0 || seg.Score > 1 {
		t.Errorf("score out of range: %v", seg.Score)
	}
}

func TestRoutingDecision_Struct(t *testing.T) {
	d := RoutingDecision{ModelID: "local", BusinessType: BusinessSimpleQA, Reason: "percentage split"}
	if d.ModelID != "local" {
		t.Errorf("ModelID = %q, want %q", d.ModelID, "local")
	}
}
