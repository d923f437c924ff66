package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a Backend when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Backend is the raw key-value store behind the cache. Implementations must
// be safe for concurrent use and atomic per key; no cross-key locking is
// provided or required.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	// DelPattern removes every key matching pattern. Only trailing-wildcard
	// patterns ("product:*") are used.
	DelPattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// redisBackend stores entries in Redis.
type redisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps a Redis client as a cache backend.
func NewRedisBackend(client *redis.Client) Backend {
	return &redisBackend{client: client}
}

func (b *redisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (b *redisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (b *redisBackend) Del(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (b *redisBackend) DelPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, nextCursor, err := b.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := b.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete error: %w", err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			return nil
		}
	}
}

func (b *redisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *redisBackend) Close() error {
	return b.client.Close()
}

// memoryBackend stores entries in a process-local map. Used in tests and as
// the degraded mode when Redis is unreachable at startup.
type memoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryBackend creates an in-memory cache backend. TTLs are ignored;
// eviction is explicit.
func NewMemoryBackend() Backend {
	return &memoryBackend{entries: make(map[string][]byte)}
}

func (b *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (b *memoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	b.mu.Lock()
	b.entries[key] = cp
	b.mu.Unlock()
	return nil
}

func (b *memoryBackend) Del(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.entries, key)
	b.mu.Unlock()
	return nil
}

func (b *memoryBackend) DelPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	b.mu.Lock()
	for key := range b.entries {
		if strings.HasPrefix(key, prefix) {
			delete(b.entries, key)
		}
	}
	b.mu.Unlock()
	return nil
}

func (b *memoryBackend) Ping(_ context.Context) error { return nil }

func (b *memoryBackend) Close() error { return nil }
