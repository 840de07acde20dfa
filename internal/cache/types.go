package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/framesafe/framesafe/internal/pii"
)

// Entry is a cached filtering outcome. Consecutive screen captures often
// carry identical OCR text, so replaying a prior decision avoids re-running
// detection and masking per frame.
type Entry struct {
	FilteredText   string     `json:"filtered_text"`
	ContainedPII   bool       `json:"contained_pii"`
	DetectedTypes  []pii.Type `json:"detected_types,omitempty"`
	BlockedTypes   []pii.Type `json:"blocked_types,omitempty"`
	MaskingApplied bool       `json:"masking_applied"`
	ShouldStore    bool       `json:"should_store"`
	CachedAt       time.Time  `json:"cached_at"`
}

// Cache stores filtering outcomes keyed by text digest and config revision.
// Lookup failures degrade to a miss; they never propagate to the caller.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, entry *Entry)
	Stats() Stats
	Close() error
}

// Stats tracks cache performance.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Config contains result cache configuration.
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	MaxEntries     int           `yaml:"max_entries" mapstructure:"max_entries"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// DefaultConfig returns the cache defaults: in-process cache, five-minute
// TTL, bounded at 4096 entries.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		RedisURL:       "",
		MaxConnections: 10,
		MinIdleConns:   2,
		DefaultTTL:     5 * time.Minute,
		MaxEntries:     4096,
		KeyPrefix:      "framesafe",
	}
}

// Key derives a cache key from the text digest and the active config
// revision, so entries written under a stale config can never hit.
func Key(text string, revision uint64) string {
	digest := sha256.Sum256([]byte(text))
	return fmt.Sprintf("rev%d:%s", revision, hex.EncodeToString(digest[:8]))
}
