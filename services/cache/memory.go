package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultCapacity      = 1000
	DefaultSweepInterval = time.Minute
)

type memoryEntry struct {
	value    []byte
	storedAt time.Time
	hits     int64
}

// MemoryBackend is the process-local fallback tier. It is bounded: inserting
// a new key at capacity evicts the oldest stored entry.
type MemoryBackend struct {
	mu       sync.Mutex
	items    *gocache.Cache
	capacity int

	evictions int64
}

// NewMemoryBackend creates a fallback tier; the go-cache janitor sweeps
// expired entries every sweepInterval.
func NewMemoryBackend(capacity int, sweepInterval time.Duration) *MemoryBackend {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &MemoryBackend{
		items:    gocache.New(gocache.NoExpiration, sweepInterval),
		capacity: capacity,
	}
}

func (m *MemoryBackend) Name() string {
	return "memory"
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, found := m.items.Get(key)
	if !found {
		// drop an expired entry the janitor has not reached yet
		m.items.Delete(key)
		return nil, false, nil
	}

	entry := raw.(*memoryEntry)
	entry.hits++
	return entry.value, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items.Get(key); !exists && m.items.ItemCount() >= m.capacity {
		m.items.DeleteExpired()
		if m.items.ItemCount() >= m.capacity {
			m.evictOldest()
		}
	}

	expiration := gocache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}

	m.items.Set(key, &memoryEntry{value: value, storedAt: time.Now()}, expiration)
	return nil
}

func (m *MemoryBackend) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, item := range m.items.Items() {
		entry := item.Object.(*memoryEntry)
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		m.items.Delete(oldestKey)
		m.evictions++
	}
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		m.items.Delete(key)
	}
	return nil
}

func (m *MemoryBackend) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key := range m.items.Items() {
		if strings.HasPrefix(key, prefix) {
			m.items.Delete(key)
			deleted++
		}
	}
	return deleted, nil
}

// Hits returns the hit counter of a live entry.
func (m *MemoryBackend) Hits(key string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, found := m.items.Get(key)
	if !found {
		return 0, false
	}
	return raw.(*memoryEntry).hits, true
}

type MemoryStats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Evictions int64 `json:"evictions"`
}

func (m *MemoryBackend) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := MemoryStats{Capacity: m.capacity, Evictions: m.evictions}
	for _, item := range m.items.Items() {
		stats.Entries++
		stats.Hits += item.Object.(*memoryEntry).hits
	}
	return stats
}

func (m *MemoryBackend) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items.Flush()
}
