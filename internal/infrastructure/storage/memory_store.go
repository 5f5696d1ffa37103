package storage

import (
	"sync"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

type memoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	quota    int
	usedSize int
}

// NewMemoryStore creates an in-memory key-value store. quotaBytes caps the
// total size of stored values, mirroring a browser storage quota; zero
// means unlimited.
func NewMemoryStore(quotaBytes int) repository.KVStore {
	return &memoryStore{
		values: make(map[string]string),
		quota:  quotaBytes,
	}
}

// Get returns the value for key.
func (m *memoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok
}

// Set stores value under key, enforcing the quota.
func (m *memoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.usedSize - len(m.values[key]) + len(value)
	if m.quota > 0 && next > m.quota {
		return entity.ErrStorageFull
	}

	m.values[key] = value
	m.usedSize = next
	return nil
}

// Remove deletes key.
func (m *memoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usedSize -= len(m.values[key])
	delete(m.values, key)
	return nil
}

// Keys returns all stored keys.
func (m *memoryStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	return keys, nil
}

// Close is a no-op for the memory backend.
func (m *memoryStore) Close() error {
	return nil
}
