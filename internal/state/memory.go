package state

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend keeps slots in process memory. State does not survive a
// restart; it is meant for tests and dry runs.
type MemoryBackend struct {
	mu    sync.RWMutex
	slots map[Slot][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{slots: make(map[Slot][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, slot Slot) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (m *MemoryBackend) Put(_ context.Context, slot Slot, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = slices.Clone(data)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
