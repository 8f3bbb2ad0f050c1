package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestAppendAndGet(t *testing.T) {
	h := NewHistory(3)

	h.Append("s1", "q1", "a1")
	h.Append("s1", "q2", "a2")

	exchanges := h.Get("s1")
	if len(exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(exchanges))
	}
	if exchanges[0].Query != "q1" || exchanges[1].Query != "q2" {
		t.Errorf("exchanges out of order: %+v", exchanges)
	}
}

func TestFIFOEviction(t *testing.T) {
	h := NewHistory(2)

	for i := 1; i <= 5; i++ {
		h.Append("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		if got := len(h.Get("s1")); got > 2 {
			t.Fatalf("window exceeded limit after %d appends: %d", i, got)
		}
	}

	exchanges := h.Get("s1")
	if len(exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(exchanges))
	}
	if exchanges[0].Query != "q4" || exchanges[1].Query != "q5" {
		t.Errorf("oldest exchanges not evicted first: %+v", exchanges)
	}
}

func TestSessionIsolation(t *testing.T) {
	h := NewHistory(2)

	h.Append("s1", "q1", "a1")
	h.Append("s2", "other", "answer")

	if got := h.Get("s1"); len(got) != 1 || got[0].Query != "q1" {
		t.Errorf("s1 window polluted: %+v", got)
	}
	if got := h.Get("s2"); len(got) != 1 || got[0].Query != "other" {
		t.Errorf("s2 window polluted: %+v", got)
	}

	h.Clear("s1")
	if got := h.Get("s1"); len(got) != 0 {
		t.Errorf("clear left exchanges behind: %+v", got)
	}
	if got := h.Get("s2"); len(got) != 1 {
		t.Errorf("clear leaked across sessions: %+v", got)
	}
}

func TestMessagesAlternateRoles(t *testing.T) {
	h := NewHistory(2)
	h.Append("s1", "q1", "a1")

	messages := h.Messages("s1")
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[0].Content != "q1" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != "assistant" || messages[1].Content != "a1" {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
}

func TestGetReturnsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Append("s1", "q1", "a1")

	exchanges := h.Get("s1")
	exchanges[0].Answer = "mutated"

	if got := h.Get("s1"); got[0].Answer != "a1" {
		t.Error("external mutation leaked into the window")
	}
}

func TestConcurrentAppends(t *testing.T) {
	h := NewHistory(4)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("s%d", id%2)
			for j := 0; j < 50; j++ {
				h.Append(sessionID, "q", "a")
			}
		}(i)
	}
	wg.Wait()

	for _, sessionID := range []string{"s0", "s1"} {
		if got := len(h.Get(sessionID)); got != 4 {
			t.Errorf("%s: expected full window of 4, got %d", sessionID, got)
		}
	}
}

func TestDefaultLimit(t *testing.T) {
	h := NewHistory(0)
	if h.Limit() != DefaultMaxExchanges {
		t.Errorf("expected default limit %d, got %d", DefaultMaxExchanges, h.Limit())
	}
}
