package events

import (
	"context"
	"fmt"
	"log"

	"github.com/example/catalog-admin/domain/catalog"
	"github.com/example/catalog-admin/modules/cache"
	"github.com/example/catalog-admin/modules/notify"
	"github.com/go-monolith/mono"
)

// Config holds event pipeline configuration.
type Config struct {
	// Mode selects the transport: "nats" or "memory".
	Mode   string
	NATS   NATSConfig
	Shards int
	Buffer int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Mode:   "memory",
		NATS:   DefaultNATSConfig(),
		Shards: 4,
		Buffer: 256,
	}
}

// CatalogProvider exposes the product repository the consumer writes through.
type CatalogProvider interface {
	ProductRepository() *catalog.ProductRepository
}

// CacheProvider exposes the shared cache.
type CacheProvider interface {
	GetCache() *cache.Cache
}

// NotifierProvider exposes the notification sink.
type NotifierProvider interface {
	GetNotifier() notify.Notifier
}

// PipelineStats aggregates publisher and consumer counters.
type PipelineStats struct {
	Published       uint64        `json:"published"`
	PublishFailures uint64        `json:"publish_failures"`
	Consumer        ConsumerStats `json:"consumer"`
}

// Module provides the event pipeline as a mono module.
type Module struct {
	cfg       Config
	catalog   CatalogProvider
	cacheMod  CacheProvider
	notifyMod NotifierProvider

	transport Transport
	publisher *Publisher
	consumer  *Consumer
	cancel    context.CancelFunc
}

var _ mono.Module = (*Module)(nil)

// NewModule creates a new events module.
func NewModule(cfg Config) *Module {
	return &Module{cfg: cfg}
}

// SetCatalog wires the catalog module. Must be called before Start.
func (m *Module) SetCatalog(p CatalogProvider) { m.catalog = p }

// SetCache wires the cache module. Must be called before Start.
func (m *Module) SetCache(p CacheProvider) { m.cacheMod = p }

// SetNotify wires the notify module. Must be called before Start.
func (m *Module) SetNotify(p NotifierProvider) { m.notifyMod = p }

// Name returns the module name.
func (m *Module) Name() string {
	return "events"
}

// Start connects the transport and launches the consumer.
func (m *Module) Start(ctx context.Context) error {
	if m.catalog == nil || m.cacheMod == nil || m.notifyMod == nil {
		return fmt.Errorf("events module dependencies not wired")
	}

	switch m.cfg.Mode {
	case "nats":
		t := NewNATSTransport(m.cfg.NATS)
		if err := t.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect event transport: %w", err)
		}
		m.transport = t
	default:
		m.transport = NewChannelTransport(m.cfg.Buffer)
		log.Println("[events] using in-process transport")
	}

	m.publisher = NewPublisher(m.transport)
	m.consumer = NewConsumer(
		m.catalog.ProductRepository(),
		m.cacheMod.GetCache(),
		m.notifyMod.GetNotifier(),
		m.cfg.Shards,
		m.cfg.Buffer,
	)

	consumerCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	if err := m.consumer.Start(consumerCtx, m.transport); err != nil {
		cancel()
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	log.Println("[events] Module started")
	return nil
}

// Stop closes the transport and stops the shard workers.
func (m *Module) Stop(_ context.Context) error {
	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			log.Printf("[events] error closing transport: %v", err)
		}
	}
	if m.cancel != nil {
		m.cancel()
		m.consumer.Wait()
	}
	log.Println("[events] Module stopped")
	return nil
}

// PublishCategoryCreated implements the publisher contract consumed by the
// catalog services.
func (m *Module) PublishCategoryCreated(ctx context.Context, c *catalog.Category) {
	if m.publisher == nil {
		log.Printf("[events] dropping CREATED event for category %d: pipeline not started", c.ID)
		return
	}
	m.publisher.PublishCategoryCreated(ctx, c)
}

// PublishCategoryStatusChanged implements the publisher contract consumed by
// the catalog services.
func (m *Module) PublishCategoryStatusChanged(ctx context.Context, c *catalog.Category, oldStatus catalog.Status) {
	if m.publisher == nil {
		log.Printf("[events] dropping STATUS_CHANGED event for category %d: pipeline not started", c.ID)
		return
	}
	m.publisher.PublishCategoryStatusChanged(ctx, c, oldStatus)
}

// Stats returns the aggregated pipeline counters.
func (m *Module) Stats() PipelineStats {
	s := PipelineStats{}
	if m.publisher != nil {
		s.Published = m.publisher.Published()
		s.PublishFailures = m.publisher.Failures()
	}
	if m.consumer != nil {
		s.Consumer = m.consumer.Stats()
	}
	return s
}
