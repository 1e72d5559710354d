package state

import (
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

const (
	DefaultHistoryCapacity = 10
	DefaultRenderWindow    = 5

	historyHeader = "CONVERSATION HISTORY:"
)

// HistoryOption customizes History.
type HistoryOption func(*History)

func WithCapacity(n int) HistoryOption {
	return func(h *History) {
		if n > 0 {
			h.capacity = n
		}
	}
}

func WithRenderWindow(n int) HistoryOption {
	return func(h *History) {
		if n > 0 {
			h.window = n
		}
	}
}

func WithClock(now func() time.Time) HistoryOption {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// History is a bounded, ordered record of completed exchanges. It keeps at
// most capacity entries (oldest evicted first) and renders the most recent
// window of them into model-facing context.
type History struct {
	mu        sync.RWMutex
	capacity  int
	window    int
	exchanges []contractx.Exchange
	now       func() time.Time
}

func NewHistory(opts ...HistoryOption) *History {
	h := &History{
		capacity: DefaultHistoryCapacity,
		window:   DefaultRenderWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.window > h.capacity {
		h.window = h.capacity
	}
	h.exchanges = make([]contractx.Exchange, 0, h.capacity+1)
	return h
}

func (h *History) Capacity() int { return h.capacity }

func (h *History) Window() int { return h.window }

// Append records a completed exchange and evicts the oldest entries beyond capacity.
func (h *History) Append(userText, assistantText string) contractx.Exchange {
	ex := contractx.Exchange{
		ID:            uuid.New().String(),
		UserText:      userText,
		AssistantText: assistantText,
		CreatedAt:     h.now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = append(h.exchanges, ex)
	h.truncateLocked()
	return ex
}

// Restore replaces the held exchanges with the tail of the given slice.
func (h *History) Restore(exchanges []contractx.Exchange) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = append(h.exchanges[:0], exchanges...)
	h.truncateLocked()
}

func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = h.exchanges[:0]
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.exchanges)
}

// Exchanges returns a copy of all held exchanges, oldest first.
func (h *History) Exchanges() []contractx.Exchange {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]contractx.Exchange, len(h.exchanges))
	copy(out, h.exchanges)
	return out
}

// Recent returns a copy of the render window, oldest first.
func (h *History) Recent() []contractx.Exchange {
	h.mu.RLock()
	defer h.mu.RUnlock()
	start := max(len(h.exchanges)-h.window, 0)
	out := make([]contractx.Exchange, len(h.exchanges)-start)
	copy(out, h.exchanges[start:])
	return out
}

// Lines yields the rendered context line by line. Each iteration takes a
// fresh snapshot, so the sequence can be ranged over more than once.
func (h *History) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		recent := h.Recent()
		if len(recent) == 0 {
			return
		}
		if !yield(historyHeader) {
			return
		}
		for i, ex := range recent {
			lines := [...]string{
				fmt.Sprintf("Exchange %d:", i+1),
				"User: " + ex.UserText,
				"AI: " + ex.AssistantText,
				"",
			}
			for _, line := range lines {
				if !yield(line) {
					return
				}
			}
		}
	}
}

// Render returns the context block for the most recent exchanges, or "" when
// the history is empty.
func (h *History) Render() string {
	var b strings.Builder
	for line := range h.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (h *History) truncateLocked() {
	if over := len(h.exchanges) - h.capacity; over > 0 {
		h.exchanges = append(h.exchanges[:0], h.exchanges[over:]...)
	}
}
