package cache

import (
	"context"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Config holds cache module configuration.
type Config struct {
	RedisAddr string
	Prefix    string
	TTL       time.Duration
}

// DefaultConfig returns the default cache configuration. An empty RedisAddr
// selects the in-memory backend.
func DefaultConfig() Config {
	return Config{
		RedisAddr: "localhost:6379",
		Prefix:    "catalog:",
		TTL:       5 * time.Minute,
	}
}

// Module provides the cache as a mono module.
type Module struct {
	cfg   Config
	cache *Cache
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new cache module.
func NewModule(cfg Config) *Module {
	return &Module{cfg: cfg}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start connects the backend. An unreachable Redis degrades to the in-memory
// backend rather than failing startup: cache unavailability must never take
// the service down, reads just miss and hit the store directly.
func (m *Module) Start(ctx context.Context) error {
	backend := m.connect(ctx)
	m.cache = New(backend, m.cfg.Prefix, m.cfg.TTL)
	log.Println("[cache] Module started")
	return nil
}

func (m *Module) connect(ctx context.Context) Backend {
	if m.cfg.RedisAddr == "" {
		log.Println("[cache] No Redis address configured, using in-memory backend")
		return NewMemoryBackend()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         m.cfg.RedisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[cache] Redis unreachable at %s (%v), degrading to in-memory backend", m.cfg.RedisAddr, err)
		_ = client.Close()
		return NewMemoryBackend()
	}

	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.cfg.RedisAddr, m.cfg.Prefix, m.cfg.TTL)
	return NewRedisBackend(client)
}

// Stop closes the backend connection.
func (m *Module) Stop(_ context.Context) error {
	if m.cache != nil {
		if err := m.cache.backend.Close(); err != nil {
			log.Printf("[cache] Error closing backend: %v", err)
		}
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health reports backend connectivity.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.cache == nil {
		return mono.HealthStatus{Healthy: false, Message: "cache not initialized"}
	}
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// GetCache returns the cache instance.
func (m *Module) GetCache() *Cache {
	return m.cache
}
