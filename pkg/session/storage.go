package session

import (
	"context"
	"maps"
	"sync"
)

// Fixed device storage keys.
const (
	KeyToken        = "almond_token"
	KeyUser         = "almond_user"
	KeyRefreshToken = "almond_refresh_token"
)

// Change sets Key to Value, or removes it when Delete is true.
type Change struct {
	Key    string
	Value  string
	Delete bool
}

// Storage is the local device store backing a Store. Apply must be atomic:
// either every change lands or none does.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Apply(ctx context.Context, changes ...Change) error
}

// MemoryStorage is an in-process Storage, used in tests and as the
// fallback when no device store is configured.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Apply(_ context.Context, changes ...Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range changes {
		if c.Delete {
			delete(m.data, c.Key)
			continue
		}
		m.data[c.Key] = c.Value
	}
	return nil
}

// Snapshot copies the raw stored values.
func (m *MemoryStorage) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}
