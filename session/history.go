// Package session provides bounded conversational memory keyed by opaque
// session identifiers.
//
// Information Hiding:
// - Map storage and the FIFO eviction policy hidden behind the interface
// - Per-key serialization via a single mutex
package session

import (
	"sync"

	"github.com/mlevans/coursepilot/llm"
)

// DefaultMaxExchanges is the bounded window size used when none is configured.
const DefaultMaxExchanges = 2

// Exchange is one (query, answer) pair.
type Exchange struct {
	Query  string
	Answer string
}

// History holds at most K recent exchanges per session, oldest evicted
// first. Session IDs are opaque keys with no implicit relationship; mutation
// per key is serialized to preserve FIFO ordering.
type History struct {
	mu       sync.RWMutex
	limit    int
	sessions map[string][]Exchange
}

// NewHistory creates a history window holding at most limit exchanges per
// session. A non-positive limit selects DefaultMaxExchanges.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultMaxExchanges
	}
	return &History{
		limit:    limit,
		sessions: make(map[string][]Exchange),
	}
}

// Limit returns the window size.
func (h *History) Limit() int {
	return h.limit
}

// Append records an exchange, evicting the oldest if the window is full.
func (h *History) Append(sessionID, query, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	exchanges := append(h.sessions[sessionID], Exchange{Query: query, Answer: answer})
	if len(exchanges) > h.limit {
		exchanges = exchanges[len(exchanges)-h.limit:]
	}
	h.sessions[sessionID] = exchanges
}

// Get returns the session's exchanges, oldest first. The returned slice is a
// copy; callers cannot mutate the window.
func (h *History) Get(sessionID string) []Exchange {
	h.mu.RLock()
	defer h.mu.RUnlock()

	exchanges := h.sessions[sessionID]
	copied := make([]Exchange, len(exchanges))
	copy(copied, exchanges)
	return copied
}

// Messages returns the session's exchanges as alternating user/assistant
// chat messages, oldest first, ready to prepend to a model conversation.
func (h *History) Messages(sessionID string) []llm.ChatMessage {
	exchanges := h.Get(sessionID)

	messages := make([]llm.ChatMessage, 0, len(exchanges)*2)
	for _, e := range exchanges {
		messages = append(messages, llm.UserMessage(e.Query))
		messages = append(messages, llm.AssistantMessage(e.Answer))
	}
	return messages
}

// Clear removes a session's window entirely.
func (h *History) Clear(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}
