package audit

import (
	"context"
	"maps"
	"sync"
)

// MemoryStorage keeps events in process. Events are lost on restart.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Store(_ context.Context, event Event) error {
	event.Metadata = maps.Clone(event.Metadata)

	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return nil
}

// Query scans from the newest event. Events are appended in the order they
// were logged, so that order stands in for CreatedAt.
func (m *MemoryStorage) Query(_ context.Context, c Criteria) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		out     []Event
		skipped int
	)
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if !c.Matches(e) {
			continue
		}
		if skipped < c.Offset {
			skipped++
			continue
		}
		e.Metadata = maps.Clone(e.Metadata)
		out = append(out, e)
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
	}
	return out, nil
}
