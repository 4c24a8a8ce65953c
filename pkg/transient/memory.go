package transient

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store
type Memory struct {
	prefix string
	now    func() time.Time

	mu    sync.Mutex
	items map[string]memoryItem
}

// NewMemory creates an in-process store using now as its clock
func NewMemory(prefix string, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		prefix: prefix,
		now:    now,
		items:  make(map[string]memoryItem),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[m.prefix+key]
	if !ok {
		return nil, ErrNotFound
	}
	if !item.expiresAt.IsZero() && m.now().After(item.expiresAt) {
		delete(m.items, m.prefix+key)
		return nil, ErrNotFound
	}

	value := make([]byte, len(item.value))
	copy(value, item.value)
	return value, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[m.prefix+key] = item
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, m.prefix+key)
	m.mu.Unlock()
	return nil
}
