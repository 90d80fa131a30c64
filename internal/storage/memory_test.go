package storage

import (
	"context"
	"testing"
	"time"

	"github.com/ragagent/ragagent/pkg/models"
)

func TestMemoryMessageStore_AppendTurnThenHistory(t *testing.T) {
	store := NewMemoryMessageStore()
	ctx := context.Background()

	user := &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleUser, Content: "hi", CreatedAt: time.Now()}
	assistant := &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleAssistant, Content: "hello", CreatedAt: time.Now()}

	if err := store.AppendTurn(ctx, user, assistant); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	history, err := store.History(ctx, "agent-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History() len = %d, want 2", len(history))
	}
	if history[0].Role != models.RoleUser || history[1].Role != models.RoleAssistant {
		t.Fatalf("History() order = [%s, %s], want [user, assistant]", history[0].Role, history[1].Role)
	}
	if history[0].ID == 0 || history[1].ID == 0 {
		t.Fatal("expected both messages to receive an id")
	}
}

func TestMemoryMessageStore_DeleteRemovesAllRows(t *testing.T) {
	store := NewMemoryMessageStore()
	ctx := context.Background()

	_ = store.Append(ctx, &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleUser, Content: "m1"})
	_ = store.Append(ctx, &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleAssistant, Content: "m2"})

	if err := store.Delete(ctx, "agent-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	history, err := store.History(ctx, "agent-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("History() after delete len = %d, want 0", len(history))
	}
}

func TestMemoryMessageStore_TailReturnsNewestFirst(t *testing.T) {
	store := NewMemoryMessageStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = store.Append(ctx, &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleUser, Content: string(rune('a' + i))})
	}

	tail, err := store.Tail(ctx, "agent-1", 2)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(tail) != 2 {
		t.Fatalf("Tail() len = %d, want 2", len(tail))
	}
	if tail[0].Content != "e" || tail[1].Content != "d" {
		t.Fatalf("Tail() = [%q, %q], want [e, d] newest-first", tail[0].Content, tail[1].Content)
	}
}

func TestMemoryMessageStore_ConversationsForFiltersByUserAndPrefix(t *testing.T) {
	store := NewMemoryMessageStore()
	ctx := context.Background()

	_ = store.Append(ctx, &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleUser, Content: "a"})
	_ = store.Append(ctx, &models.Message{ConversationID: "chat-1", UserID: "u1", Role: models.RoleUser, Content: "b"})
	_ = store.Append(ctx, &models.Message{ConversationID: "agent-2", UserID: "u2", Role: models.RoleUser, Content: "c"})
	_ = store.Append(ctx, &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleAssistant, Content: "d"})

	ids, err := store.ConversationsFor(ctx, "u1", models.ConversationPrefixAgent)
	if err != nil {
		t.Fatalf("ConversationsFor() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "agent-1" {
		t.Fatalf("ConversationsFor() = %v, want [agent-1]", ids)
	}
}

func TestMemoryMessageStore_DeleteOlderThanRemovesOnlyStaleConversations(t *testing.T) {
	store := NewMemoryMessageStore()
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	_ = store.Append(ctx, &models.Message{ConversationID: "agent-stale", UserID: "u1", Role: models.RoleUser, Content: "a", CreatedAt: old})
	_ = store.Append(ctx, &models.Message{ConversationID: "agent-stale", UserID: "u1", Role: models.RoleAssistant, Content: "b", CreatedAt: old})
	_ = store.Append(ctx, &models.Message{ConversationID: "agent-fresh", UserID: "u1", Role: models.RoleUser, Content: "c", CreatedAt: recent})

	removed, err := store.DeleteOlderThan(ctx, time.Now().Add(-1*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	staleHistory, err := store.History(ctx, "agent-stale")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(staleHistory) != 0 {
		t.Fatalf("expected stale conversation to be fully removed, got %d rows", len(staleHistory))
	}

	freshHistory, err := store.History(ctx, "agent-fresh")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(freshHistory) != 1 {
		t.Fatalf("expected fresh conversation to survive, got %d rows", len(freshHistory))
	}
}

func TestMemoryMessageStore_ConversationsForOrdersByRecentActivity(t *testing.T) {
	store := NewMemoryMessageStore()
	ctx := context.Background()

	_ = store.Append(ctx, &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleUser, Content: "a"})
	_ = store.Append(ctx, &models.Message{ConversationID: "agent-2", UserID: "u1", Role: models.RoleUser, Content: "b"})
	_ = store.Append(ctx, &models.Message{ConversationID: "agent-1", UserID: "u1", Role: models.RoleAssistant, Content: "c"})

	ids, err := store.ConversationsFor(ctx, "u1", models.ConversationPrefixAgent)
	if err != nil {
		t.Fatalf("ConversationsFor() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "agent-1" || ids[1] != "agent-2" {
		t.Fatalf("ConversationsFor() = %v, want [agent-1, agent-2] most-recent-first", ids)
	}
}
