// Package embstate holds the only state shared across concurrent requests:
// the process-wide embedding cache and the provider failure breaker. Both
// are injected dependencies, never ambient singletons.
package embstate

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type cacheEntry struct {
	vector   []float32
	cachedAt time.Time
}

// TTLCache maps normalized query text to a previously computed embedding.
// Entries older than the TTL read as absent and are dropped on access.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time

	// lookups is an optional counter with a "result" label (hit/miss).
	lookups *prometheus.CounterVec
}

func NewTTLCache(ttl time.Duration, lookups *prometheus.CounterVec) *TTLCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TTLCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
		lookups: lookups,
	}
}

func (c *TTLCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[text]
	if ok && c.now().Sub(entry.cachedAt) > c.ttl {
		delete(c.entries, text)
		ok = false
	}

	if c.lookups != nil {
		if ok {
			c.lookups.WithLabelValues("hit").Inc()
		} else {
			c.lookups.WithLabelValues("miss").Inc()
		}
	}
	if !ok {
		return nil, false
	}
	return entry.vector, true
}

func (c *TTLCache) Put(text string, vector []float32) {
	if text == "" || len(vector) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[text] = cacheEntry{vector: vector, cachedAt: c.now()}
}

// Len reports live (non-expired) entries.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	cutoff := c.now().Add(-c.ttl)
	for _, entry := range c.entries {
		if entry.cachedAt.After(cutoff) {
			n++
		}
	}
	return n
}
