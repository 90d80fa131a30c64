package agent

import (
	"github.com/ragagent/ragagent/pkg/models"
)

// Memory is the bounded, request-scoped reconstruction of recent turns
// presented to a chat model (C6). It is built once per request from the
// conversation store's tail and grows as the agent loop appends tool
// interactions; it is never shared across requests.
type Memory struct {
	window   int // W, the configured context window
	messages []CompletionMessage
}

// NewMemory constructs a Memory from the last W persisted messages of a
// conversation, already ordered oldest-first by the caller (the store's
// tail is newest-first; callers must reverse before calling NewMemory, or
// use NewMemoryFromTail below).
func NewMemory(window int, history []CompletionMessage) *Memory {
	if window < 0 {
		window = 0
	}
	m := &Memory{window: window}
	start := 0
	if len(history) > window {
		start = len(history) - window
	}
	m.messages = append(m.messages, history[start:]...)
	m.evictToCap()
	return m
}

// NewMemoryFromTail builds a Memory from a conversation store's tail result
// (newest-first) by reversing it into ascending order first.
func NewMemoryFromTail(window int, tailNewestFirst []models.Message) *Memory {
	ascending := make([]models.Message, len(tailNewestFirst))
	for i, m := range tailNewestFirst {
		ascending[len(tailNewestFirst)-1-i] = m
	}
	converted := make([]CompletionMessage, 0, len(ascending))
	for _, m := range ascending {
		converted = append(converted, CompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return NewMemory(window, converted)
}

// cap is the maximum number of entries the deque retains: 2W.
func (m *Memory) cap() int {
	if m.window <= 0 {
		return 0
	}
	return 2 * m.window
}

// Append adds a message to the tail of the window, evicting the oldest
// entry (after any leading system preamble) if the cap is exceeded.
func (m *Memory) Append(msg CompletionMessage) {
	m.messages = append(m.messages, msg)
	m.evictToCap()
}

func (m *Memory) evictToCap() {
	limit := m.cap()
	if limit <= 0 {
		// window==0 means no prior-history memory is retained beyond what
		// was just appended during this request.
		if len(m.messages) > 0 && m.window == 0 {
			return
		}
		return
	}
	for len(m.messages) > limit {
		evictAt := 0
		if len(m.messages) > 0 && m.messages[0].Role == "system" {
			evictAt = 1
		}
		if evictAt >= len(m.messages) {
			break
		}
		m.messages = append(m.messages[:evictAt], m.messages[evictAt+1:]...)
	}
}

// Messages returns the current ordered message list for presentation to a
// provider.
func (m *Memory) Messages() []CompletionMessage {
	out := make([]CompletionMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the current number of entries in the window.
func (m *Memory) Len() int { return len(m.messages) }
