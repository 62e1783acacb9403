// Package cache provides a small in-memory TTL cache with bounded size.
// It is used by the composite scorer to memoize score calculations within
// a scan pass. The cache is explicit state owned by whoever constructs it,
// never a package-level global, so tests stay deterministic.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	expireAt time.Time
	touched  time.Time
}

// Cache is a mutex-synchronized TTL cache with LRU eviction once maxSize
// is reached. Safe for concurrent use; a racing read-check-insert at worst
// recomputes a value, it never corrupts state.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]entry[V]
	ttl     time.Duration
	maxSize int
	now     func() time.Time // overridable for tests
}

// New creates a cache with the given TTL and maximum entry count.
func New[K comparable, V any](ttl time.Duration, maxSize int) *Cache[K, V] {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &Cache[K, V]{
		items:   make(map[K]entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	if c.now().After(e.expireAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}

	e.touched = c.now()
	c.items[key] = e
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictLRU()
	}

	now := c.now()
	c.items[key] = entry[V]{
		value:    value,
		expireAt: now.Add(c.ttl),
		touched:  now,
	}
}

// Len returns the number of entries currently held, including expired
// entries that have not been touched since expiring.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// evictLRU removes the least-recently-touched entry. Caller holds the lock.
func (c *Cache[K, V]) evictLRU() {
	var oldestKey K
	var oldest time.Time
	first := true

	for k, e := range c.items {
		if first || e.touched.Before(oldest) {
			oldestKey = k
			oldest = e.touched
			first = false
		}
	}

	if !first {
		delete(c.items, oldestKey)
	}
}
