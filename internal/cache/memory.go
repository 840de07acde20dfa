package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is the in-process Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	config  Config
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewMemoryCache creates an empty in-process result cache.
func NewMemoryCache(config Config) *MemoryCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	return &MemoryCache{
		entries: make(map[string]*Entry),
		config:  config,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if c.config.DefaultTTL > 0 && time.Since(entry.CachedAt) > c.config.DefaultTTL {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	copied := *entry
	return &copied, true
}

func (c *MemoryCache) Set(_ context.Context, key string, entry *Entry) {
	entry.CachedAt = time.Now()
	copied := *entry

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.config.MaxEntries {
		// Evict an arbitrary entry; entries are short-lived either way.
		for victim := range c.entries {
			delete(c.entries, victim)
			break
		}
	}
	c.entries[key] = &copied
}

func (c *MemoryCache) Stats() Stats {
	stats := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	return nil
}
