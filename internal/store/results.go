package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryResults keeps recommendation results in process memory.
type MemoryResults struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryResults returns an empty in-memory result store.
func NewMemoryResults() *MemoryResults {
	return &MemoryResults{items: make(map[string][]byte)}
}

// PutResult stores a copy of payload under id.
func (m *MemoryResults) PutResult(_ context.Context, id string, _ time.Time, payload []byte) error {
	b := make([]byte, len(payload))
	copy(b, payload)
	m.mu.Lock()
	m.items[id] = b
	m.mu.Unlock()
	return nil
}

// GetResult returns the payload stored under id or ErrNotFound.
func (m *MemoryResults) GetResult(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	b, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("result %s: %w", id, ErrNotFound)
	}
	return b, nil
}
