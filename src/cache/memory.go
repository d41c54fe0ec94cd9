package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Memory implements Cache with in-process storage. It is the default
// backend and the one used in tests.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxSize    int
	defaultTTL time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory cache. A background sweeper removes
// expired entries once a minute until Close is called.
func NewMemory(maxSize int, defaultTTL time.Duration) *Memory {
	if maxSize <= 0 {
		maxSize = 10000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	m := &Memory{
		entries:    make(map[string]memoryEntry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, e := range m.entries {
				if now.After(e.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Get retrieves a value.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores a value with TTL.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxSize {
		m.evict()
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// evict removes the entries closest to expiry to make room. Called with the
// lock held.
func (m *Memory) evict() {
	toRemove := m.maxSize / 10
	if toRemove < 1 {
		toRemove = 1
	}
	for i := 0; i < toRemove; i++ {
		var oldestKey string
		var oldest time.Time
		for key, e := range m.entries {
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey = key
				oldest = e.expiresAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(m.entries, oldestKey)
	}
}

// Delete removes a key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Invalidate removes all keys with the given prefix. An empty prefix clears
// everything.
func (m *Memory) Invalidate(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prefix == "" {
		m.entries = make(map[string]memoryEntry)
		return nil
	}
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Ping always succeeds for the memory backend.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Close stops the sweeper and drops all entries.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
