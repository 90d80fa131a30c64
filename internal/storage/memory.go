package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ragagent/ragagent/pkg/models"
)

// MemoryMessageStore is an in-memory MessageStore, used in tests and for
// local development without a database.
type MemoryMessageStore struct {
	mu       sync.Mutex
	messages []models.Message
	nextID   int64
}

var _ MessageStore = (*MemoryMessageStore)(nil)

// NewMemoryMessageStore creates an empty in-memory message store.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

func (s *MemoryMessageStore) Close() error { return nil }

func (s *MemoryMessageStore) Append(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.ConversationID == "" {
		return fmt.Errorf("message is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(msg)
	return nil
}

func (s *MemoryMessageStore) AppendTurn(ctx context.Context, user *models.Message, assistant *models.Message) error {
	if user == nil || user.ConversationID == "" {
		return fmt.Errorf("user message is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(user)
	if assistant != nil {
		s.append(assistant)
	}
	return nil
}

// append assigns an id, holding the lock.
func (s *MemoryMessageStore) append(msg *models.Message) {
	s.nextID++
	msg.ID = s.nextID
	s.messages = append(s.messages, *msg)
}

func (s *MemoryMessageStore) Tail(ctx context.Context, conversationID string, n int) ([]models.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id is required")
	}
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			matched = append(matched, m)
		}
	}
	if len(matched) > n {
		matched = matched[len(matched)-n:]
	}
	out := make([]models.Message, len(matched))
	for i, m := range matched {
		out[len(matched)-1-i] = m
	}
	return out, nil
}

func (s *MemoryMessageStore) History(ctx context.Context, conversationID string) ([]models.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryMessageStore) ConversationsFor(ctx context.Context, userID, prefix string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lastActivity := map[string]int64{}
	for _, m := range s.messages {
		if m.UserID != userID {
			continue
		}
		if !strings.HasPrefix(m.ConversationID, prefix) {
			continue
		}
		if m.ID > lastActivity[m.ConversationID] {
			lastActivity[m.ConversationID] = m.ID
		}
	}

	ids := make([]string, 0, len(lastActivity))
	for id := range lastActivity {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return lastActivity[ids[i]] > lastActivity[ids[j]]
	})
	return ids, nil
}

func (s *MemoryMessageStore) Delete(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.messages[:0:0]
	for _, m := range s.messages {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

// DeleteOlderThan removes every conversation whose most recent message
// predates cutoff.
func (s *MemoryMessageStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastActivity := map[string]time.Time{}
	for _, m := range s.messages {
		if m.CreatedAt.After(lastActivity[m.ConversationID]) {
			lastActivity[m.ConversationID] = m.CreatedAt
		}
	}

	stale := map[string]bool{}
	for id, last := range lastActivity {
		if last.Before(cutoff) {
			stale[id] = true
		}
	}

	var removed int64
	kept := s.messages[:0:0]
	for _, m := range s.messages {
		if stale[m.ConversationID] {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	return removed, nil
}
