// Package cache provides thread-safe in-memory memoization of analysis
// results with TTL expiry and LRU eviction.
//
// Example usage:
//
//	cache := cache.New(time.Hour, 100)
//	cache.Put("response_times:abc123", report)
//	value, ok := cache.Get("response_times:abc123")
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the entry lifetime used when none is configured.
const DefaultTTL = time.Hour

// DefaultMaxEntries bounds the cache when no limit is configured.
const DefaultMaxEntries = 256

// Store is the memoization capability consulted by the analysis engine.
// A lookup miss and an expired entry are indistinguishable to callers.
type Store interface {
	Get(key string) (any, bool)
	Put(key string, value any)
}

type entry struct {
	value        any
	expiresAt    time.Time
	lastAccessed time.Time
}

// Cache provides thread-safe in-memory caching with TTL and LRU eviction.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
	metrics    *Metrics
}

// New creates a cache with the given TTL and maximum entry count.
// Non-positive arguments fall back to the defaults.
func New(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// SetMetrics enables Prometheus metrics for this cache. Optional; call
// once after construction.
func (c *Cache) SetMetrics(m *Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// Put stores a value, replacing any existing entry for the key. At
// capacity, the least recently used entry is evicted first.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLRU()
		}
	}
	c.entries[key] = &entry{
		value:        value,
		expiresAt:    now.Add(c.ttl),
		lastAccessed: now,
	}
	if c.metrics != nil {
		c.metrics.SetSize(len(c.entries))
	}
}

// Get retrieves a value. Expired entries are removed on access and
// reported as misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	metrics := c.metrics
	c.mu.RUnlock()

	if !exists {
		if metrics != nil {
			metrics.RecordMiss()
		}
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		if c.metrics != nil {
			c.metrics.SetSize(len(c.entries))
		}
		c.mu.Unlock()

		if metrics != nil {
			metrics.RecordMiss()
		}
		return nil, false
	}

	c.mu.Lock()
	e.lastAccessed = time.Now()
	c.mu.Unlock()

	if metrics != nil {
		metrics.RecordHit()
	}
	return e.value, true
}

// Delete removes an entry. No-op if the key is absent.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	if c.metrics != nil {
		c.metrics.SetSize(len(c.entries))
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	if c.metrics != nil {
		c.metrics.SetSize(0)
	}
}

// Len reports the current entry count, including not-yet-evicted expired
// entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLRU removes the least recently used entry. Caller must hold the
// write lock.
func (c *Cache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	first := true
	for key, e := range c.entries {
		if first || e.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessed
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Nop is a Store that caches nothing. It keeps analysis deterministic in
// tests and is the default when no shared cache is wired.
type Nop struct{}

func (Nop) Get(string) (any, bool) { return nil, false }
func (Nop) Put(string, any)        {}
