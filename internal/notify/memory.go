package notify

import (
	"context"
	"sync"

	"github.com/parishdesk/reporting/internal/model"
)

// Memory keeps the last N notices in a ring buffer.
type Memory struct {
	mu    sync.Mutex
	ring  []model.Notice
	next  int
	count int
}

// NewMemory creates a ring holding up to capacity notices.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = MaxRecentLimit
	}
	return &Memory{ring: make([]model.Notice, capacity)}
}

// Notify stores the notice, evicting the oldest when full.
func (m *Memory) Notify(n model.Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ring[m.next] = n
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
}

// Recent returns up to limit notices, newest first.
func (m *Memory) Recent(_ context.Context, limit int) ([]model.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit = clampLimit(limit)
	if limit > m.count {
		limit = m.count
	}

	out := make([]model.Notice, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}
