// Package cache provides the read-through cache in front of the catalog
// entity store, with self-healing read-repair and explicit invalidation.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"
	"unicode"
)

// Kind namespaces cache keys per entity type. Category and product
// namespaces are evicted independently; no cross-namespace lock exists.
type Kind string

const (
	// KindCategory namespaces category projections.
	KindCategory Kind = "category"
	// KindProduct namespaces product projections.
	KindProduct Kind = "product"
)

// Cache is a namespaced projection cache. Operations never fail the
// surrounding business transaction: every error on the read path degrades to
// a miss and every error on the write path is logged and dropped.
type Cache struct {
	backend Backend
	prefix  string
	ttl     time.Duration
	stats   Stats
}

// Stats tracks cache counters.
type Stats struct {
	Hits    atomic.Uint64
	Misses  atomic.Uint64
	Sets    atomic.Uint64
	Evicts  atomic.Uint64
	Repairs atomic.Uint64
	Errors  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Sets    uint64  `json:"sets"`
	Evicts  uint64  `json:"evicts"`
	Repairs uint64  `json:"repairs"`
	Errors  uint64  `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// New creates a cache over the given backend.
func New(backend Backend, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		backend: backend,
		prefix:  prefix,
		ttl:     ttl,
	}
}

func (c *Cache) key(kind Kind, id uint) string {
	return fmt.Sprintf("%s%s:%d", c.prefix, kind, id)
}

// Get loads the projection for (kind, id) into dest and reports whether it
// was found. An entry stored in a legacy or loosely-typed shape is converted
// structurally, re-stored and returned; an unconvertible entry is evicted and
// reported as a miss. Conversion and backend errors never reach the caller.
func (c *Cache) Get(ctx context.Context, kind Kind, id uint, dest any) bool {
	key := c.key(kind, id)

	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			c.stats.Misses.Add(1)
		} else {
			c.stats.Errors.Add(1)
			log.Printf("[cache] get %s: %v", key, err)
		}
		return false
	}

	if err := strictUnmarshal(data, dest); err == nil {
		c.stats.Hits.Add(1)
		return true
	}

	// Read-repair: the entry may have been written by an older deployment in
	// a different serialization shape. Attempt a structural conversion; on
	// success re-store the corrected value, otherwise evict and miss.
	repaired, err := convertLoose(data, dest)
	if err != nil {
		log.Printf("[cache] evicting unreadable entry %s: %v", key, err)
		if delErr := c.backend.Del(ctx, key); delErr != nil {
			c.stats.Errors.Add(1)
		}
		c.stats.Misses.Add(1)
		return false
	}

	if err := c.backend.Set(ctx, key, repaired, c.ttl); err != nil {
		c.stats.Errors.Add(1)
		log.Printf("[cache] re-store after repair %s: %v", key, err)
	}
	c.stats.Repairs.Add(1)
	c.stats.Hits.Add(1)
	return true
}

// Put stores the projection for (kind, id). Errors are logged only.
func (c *Cache) Put(ctx context.Context, kind Kind, id uint, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.Errors.Add(1)
		log.Printf("[cache] marshal %s:%d: %v", kind, id, err)
		return
	}
	if err := c.backend.Set(ctx, c.key(kind, id), data, c.ttl); err != nil {
		c.stats.Errors.Add(1)
		log.Printf("[cache] put %s:%d: %v", kind, id, err)
		return
	}
	c.stats.Sets.Add(1)
}

// Evict removes one entry. Errors are logged only.
func (c *Cache) Evict(ctx context.Context, kind Kind, id uint) {
	if err := c.backend.Del(ctx, c.key(kind, id)); err != nil {
		c.stats.Errors.Add(1)
		log.Printf("[cache] evict %s:%d: %v", kind, id, err)
		return
	}
	c.stats.Evicts.Add(1)
}

// EvictAll removes every entry in the kind's namespace. Bulk cascades use
// this instead of per-key eviction, trading precision for simplicity.
func (c *Cache) EvictAll(ctx context.Context, kind Kind) {
	if err := c.backend.DelPattern(ctx, fmt.Sprintf("%s%s:*", c.prefix, kind)); err != nil {
		c.stats.Errors.Add(1)
		log.Printf("[cache] evict namespace %s: %v", kind, err)
		return
	}
	c.stats.Evicts.Add(1)
}

// Snapshot returns the current counters.
func (c *Cache) Snapshot() StatsSnapshot {
	hits := c.stats.Hits.Load()
	misses := c.stats.Misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return StatsSnapshot{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.stats.Sets.Load(),
		Evicts:  c.stats.Evicts.Load(),
		Repairs: c.stats.Repairs.Load(),
		Errors:  c.stats.Errors.Load(),
		HitRate: rate,
	}
}

// ResetStats zeroes all counters.
func (c *Cache) ResetStats() {
	c.stats.Hits.Store(0)
	c.stats.Misses.Store(0)
	c.stats.Sets.Store(0)
	c.stats.Evicts.Store(0)
	c.stats.Repairs.Store(0)
	c.stats.Errors.Store(0)
}

// Ping checks the backend connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// strictUnmarshal decodes data into dest rejecting unknown fields, so legacy
// shapes are detected instead of silently half-decoded.
func strictUnmarshal(data []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// convertLoose attempts a structural conversion of a loosely-typed entry:
// unwrap a legacy {"data": {...}} envelope, normalize camelCase keys to
// snake_case, then strict-decode again. Returns the corrected serialization.
func convertLoose(data []byte, dest any) ([]byte, error) {
	var loose map[string]any
	if err := json.Unmarshal(data, &loose); err != nil {
		return nil, fmt.Errorf("not a structural value: %w", err)
	}

	if inner, ok := loose["data"].(map[string]any); ok {
		loose = inner
	}
	normalized := normalizeKeys(loose)

	corrected, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("re-marshal failed: %w", err)
	}
	if err := strictUnmarshal(corrected, dest); err != nil {
		return nil, fmt.Errorf("structural conversion failed: %w", err)
	}
	return corrected, nil
}

// normalizeKeys rewrites map keys from camelCase to snake_case, recursing
// into nested maps.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeKeys(nested)
		}
		out[toSnake(k)] = v
	}
	return out
}

func toSnake(s string) string {
	var b bytes.Buffer
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
