// Package cache provides the query-result cache the console's Query State
// Store reads through. The cache is injected, never a package-level global, so
// hosts can pick an in-memory cache, the sqlite-backed one, or none.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how stale a served search result may be. Invalidation is
// best effort, so entries must also age out on their own.
const DefaultTTL = 5 * time.Minute

// Cache is a small keyed byte store with prefix invalidation. Keys are
// namespaced strings (e.g. "search/E1/page=2&q=kim"); Invalidate drops every
// key under a prefix in one call.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Invalidate(prefix string)
}

// Memory is a mutex-guarded in-memory Cache with a fixed TTL. A zero TTL
// means entries never expire.
type Memory struct {
	TTL time.Duration

	mu      sync.Mutex
	entries map[string]memoryEntry

	// now is swappable in tests.
	now func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{TTL: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exp time.Time
	if m.TTL > 0 {
		exp = m.now().Add(m.TTL)
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: exp}
}

func (m *Memory) Invalidate(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}
