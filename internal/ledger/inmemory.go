package ledger

import (
	"context"
	"strings"
	"sync"
)

type inMemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewInMemory creates a concurrency-safe in-memory backend useful for unit tests
// and local development.
func NewInMemory() KV {
	return &inMemoryKV{values: make(map[string][]byte)}
}

func (m *inMemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *inMemoryKV) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = stored
	return nil
}

func (m *inMemoryKV) Count(_ context.Context, prefix string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n, nil
}
