package events

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"

	"github.com/example/catalog-admin/domain/catalog"
)

// Publisher publishes category events on commit of the triggering write.
// A publish failure is logged and counted but never rolls back the already
// committed category write; the caller still observes success and the
// cascade simply does not happen. The counter makes that gap inspectable.
type Publisher struct {
	transport Transport
	published atomic.Uint64
	failures  atomic.Uint64
}

// NewPublisher creates a publisher over the transport.
func NewPublisher(transport Transport) *Publisher {
	return &Publisher{transport: transport}
}

// PublishCategoryCreated publishes a CREATED event for c.
func (p *Publisher) PublishCategoryCreated(ctx context.Context, c *catalog.Category) {
	p.publish(ctx, catalog.NewCategoryCreatedEvent(c))
}

// PublishCategoryStatusChanged publishes a STATUS_CHANGED event for c.
func (p *Publisher) PublishCategoryStatusChanged(ctx context.Context, c *catalog.Category, oldStatus catalog.Status) {
	p.publish(ctx, catalog.NewCategoryStatusChangedEvent(c, oldStatus))
}

func (p *Publisher) publish(ctx context.Context, ev catalog.CategoryEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.failures.Add(1)
		log.Printf("[events] marshal %s for category %d: %v", ev.EventType, ev.CategoryID, err)
		return
	}
	if err := p.transport.Publish(ctx, ev.RoutingKey(), data); err != nil {
		p.failures.Add(1)
		log.Printf("[events] publish %s for category %d: %v", ev.EventType, ev.CategoryID, err)
		return
	}
	p.published.Add(1)
}

// Published returns the number of successfully published events.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

// Failures returns the number of events lost before delivery.
func (p *Publisher) Failures() uint64 {
	return p.failures.Load()
}
