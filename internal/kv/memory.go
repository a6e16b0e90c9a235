package kv

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns a Store that lives only as long as the process.
func NewMemoryStore() Store {
	return &memoryStore{
		values: map[string]string{},
	}
}

func (m *memoryStore) Get(
	_ context.Context,
	keys ...string,
) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := m.values[key]; ok {
			values[key] = value
		}
	}
	return values, nil
}

func (m *memoryStore) PutAll(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		m.values[key] = value
	}
	return nil
}

func (m *memoryStore) DeleteAll(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
