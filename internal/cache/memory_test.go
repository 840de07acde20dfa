package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	ctx := context.Background()

	key := Key("Contact a@b.com", 1)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("Expected a miss on an empty cache")
	}

	c.Set(ctx, key, &Entry{FilteredText: "Contact [REDACTED]", ContainedPII: true, ShouldStore: true})

	entry, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("Expected a hit after Set")
	}
	if entry.FilteredText != "Contact [REDACTED]" || !entry.ContainedPII {
		t.Errorf("Unexpected entry: %+v", entry)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultTTL = time.Millisecond
	c := NewMemoryCache(cfg)
	ctx := context.Background()

	c.Set(ctx, Key("text", 1), &Entry{FilteredText: "text"})
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, Key("text", 1)); ok {
		t.Error("Expected entry to expire")
	}
}

func TestKeyIncludesRevision(t *testing.T) {
	if Key("same text", 1) == Key("same text", 2) {
		t.Error("Keys under different config revisions must differ")
	}
	if Key("same text", 3) != Key("same text", 3) {
		t.Error("Keys must be deterministic")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	c := NewMemoryCache(cfg)
	ctx := context.Background()

	c.Set(ctx, "a", &Entry{})
	c.Set(ctx, "b", &Entry{})
	c.Set(ctx, "c", &Entry{})

	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	if size > 2 {
		t.Errorf("Cache exceeded its bound: %d entries", size)
	}
}
