package chat

import "sync"

// DefaultHistorySize is the bound on retained messages.
const DefaultHistorySize = 50

// History is a fixed-capacity FIFO of recent messages. Length never exceeds
// capacity in any externally observable snapshot: eviction happens in the
// same critical section as the append.
type History struct {
	mu       sync.RWMutex
	capacity int
	entries  []Message
}

// NewHistory creates a history buffer. Non-positive capacity falls back to
// DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		capacity: capacity,
		entries:  make([]Message, 0, capacity),
	}
}

// Append adds a message, evicting the oldest entry when at capacity.
func (h *History) Append(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.capacity {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.capacity-1]
	}
	h.entries = append(h.entries, m)
}

// Snapshot returns a copy of the buffer in arrival order.
func (h *History) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the current number of retained messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Capacity returns the fixed bound.
func (h *History) Capacity() int {
	return h.capacity
}
