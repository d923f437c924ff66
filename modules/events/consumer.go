package events

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/catalog-admin/domain/catalog"
	"github.com/example/catalog-admin/modules/cache"
	"github.com/example/catalog-admin/modules/notify"
)

// ProductStore is the slice of the entity store the cascade consumer needs.
type ProductStore interface {
	FindAllByCategoryID(ctx context.Context, categoryID uint) ([]catalog.Product, error)
	SaveAll(ctx context.Context, products []catalog.Product) error
}

// ConsumerStats is a snapshot of pipeline counters.
type ConsumerStats struct {
	Processed   uint64 `json:"processed"`
	Failures    uint64 `json:"failures"`
	Deactivated uint64 `json:"deactivated"`
}

// Consumer applies the category-to-product cascade from delivered events.
//
// Messages are dispatched onto a fixed set of shard workers keyed by
// CategoryID, so events for one category are always applied in delivery
// order while unrelated categories proceed concurrently. Processing errors
// are terminal for the message: logged, counted and dropped without requeue.
type Consumer struct {
	store    ProductStore
	cache    *cache.Cache
	notifier notify.Notifier
	shards   []chan catalog.CategoryEvent
	wg       sync.WaitGroup
	ctx      context.Context

	processed   atomic.Uint64
	failures    atomic.Uint64
	deactivated atomic.Uint64
}

// NewConsumer creates a consumer with the given shard count and per-shard
// buffer.
func NewConsumer(store ProductStore, c *cache.Cache, notifier notify.Notifier, numShards, buffer int) *Consumer {
	if numShards <= 0 {
		numShards = 4
	}
	if buffer <= 0 {
		buffer = 64
	}
	shards := make([]chan catalog.CategoryEvent, numShards)
	for i := range shards {
		shards[i] = make(chan catalog.CategoryEvent, buffer)
	}
	return &Consumer{
		store:    store,
		cache:    c,
		notifier: notifier,
		shards:   shards,
	}
}

// Start launches the shard workers and subscribes to the transport. Workers
// stop when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, transport Transport) error {
	c.ctx = ctx
	for i, ch := range c.shards {
		c.wg.Add(1)
		go func(id int, ch <-chan catalog.CategoryEvent) {
			defer c.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					c.handle(ctx, ev)
				}
			}
		}(i, ch)
	}
	if err := transport.Subscribe(ctx, c.dispatch); err != nil {
		return err
	}
	log.Printf("[events] consumer started with %d shards", len(c.shards))
	return nil
}

// Wait blocks until all shard workers have exited.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// dispatch routes one delivered message to its category shard.
func (c *Consumer) dispatch(routingKey string, payload []byte) {
	var ev catalog.CategoryEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		c.failures.Add(1)
		log.Printf("[events] dropping unreadable message on %s: %v", routingKey, err)
		return
	}

	h := fnv.New32a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(ev.CategoryID >> (8 * i))
	}
	h.Write(buf[:])
	shard := int(h.Sum32()) % len(c.shards)

	select {
	case c.shards[shard] <- ev:
	case <-c.ctx.Done():
	}
}

// handle applies one event. Errors are terminal for the message.
func (c *Consumer) handle(ctx context.Context, ev catalog.CategoryEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.failures.Add(1)
			log.Printf("[events] panic handling %s for category %d: %v", ev.EventType, ev.CategoryID, r)
		}
	}()

	switch ev.EventType {
	case catalog.EventTypeCategoryCreated:
		c.notifier.Notify(ctx, catalog.RoutingKeyCategoryCreated, ev.CategoryName, map[string]any{
			"status": ev.NewStatus,
		})
	case catalog.EventTypeCategoryStatusChanged:
		c.handleStatusChanged(ctx, ev)
	default:
		log.Printf("[events] ignoring unknown event type %q for category %d", ev.EventType, ev.CategoryID)
	}
	c.processed.Add(1)
}

func (c *Consumer) handleStatusChanged(ctx context.Context, ev catalog.CategoryEvent) {
	affected := 0
	action := catalog.Decide(catalog.Transition{Kind: catalog.KindCategory, Old: ev.OldStatus, New: ev.NewStatus})
	if action == catalog.ActionDeactivateProducts {
		n, err := c.deactivateProducts(ctx, ev.CategoryID)
		if err != nil {
			// No requeue or dead-letter: the message is dropped and only the
			// failure counter records the lost cascade.
			c.failures.Add(1)
			log.Printf("[events] cascade failed for category %d: %v", ev.CategoryID, err)
			return
		}
		affected = n
	}

	c.notifier.Notify(ctx, catalog.RoutingKeyCategoryStatusChanged, ev.CategoryName, map[string]any{
		"old_status":        ev.OldStatus,
		"new_status":        ev.NewStatus,
		"affected_products": affected,
	})
}

// deactivateProducts sets every ACTIVE product of the category INACTIVE and
// evicts the product cache namespace. Products already INACTIVE are left
// untouched, which makes duplicate delivery of the same event a no-op.
func (c *Consumer) deactivateProducts(ctx context.Context, categoryID uint) (int, error) {
	products, err := c.store.FindAllByCategoryID(ctx, categoryID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	changed := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if p.Status != catalog.StatusActive {
			continue
		}
		p.Status = catalog.StatusInactive
		p.UpdatedAt = &now
		changed = append(changed, p)
	}
	if len(changed) == 0 {
		return 0, nil
	}

	if err := c.store.SaveAll(ctx, changed); err != nil {
		return 0, err
	}
	c.cache.EvictAll(ctx, cache.KindProduct)
	c.deactivated.Add(uint64(len(changed)))
	log.Printf("[events] deactivated %d products under category %d", len(changed), categoryID)
	return len(changed), nil
}

// Stats returns the pipeline counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Processed:   c.processed.Load(),
		Failures:    c.failures.Load(),
		Deactivated: c.deactivated.Load(),
	}
}
