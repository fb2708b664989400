package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is a stored value with its expiration deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// live reports whether the entry has not yet expired at now.
func (e entry) live(now time.Time) bool { return now.Before(e.expiresAt) }

// Memory is the in-process Store backend: a mutex-guarded map with lazy
// expiration. Suitable for a single-process deployment; use the Redis
// backend when multiple instances must share entries.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group

	// now is injectable for TTL tests.
	now func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrCompute implements Store. Expired entries are treated as absent and
// overwritten by the recomputed value.
func (m *Memory) GetOrCompute(ctx context.Context, key string, ttl time.Duration, produce Producer) ([]byte, error) {
	if v, ok := m.lookup(key); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent winner may have stored
		// the value between our miss and this call.
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		val, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.entries[key] = entry{value: val, expiresAt: m.now().Add(ttl)}
		m.mu.Unlock()
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	return true
}

// Clear implements Store.
func (m *Memory) Clear(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
	return true
}

// lookup returns the live value for key, pruning it when expired.
func (m *Memory) lookup(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.live(m.now()) {
		m.mu.Lock()
		// Only prune if it was not refreshed in the meantime.
		if cur, ok := m.entries[key]; ok && !cur.live(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}
