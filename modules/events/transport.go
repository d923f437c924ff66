// Package events implements the category event pipeline: durable publication
// of category status transitions and the asynchronous category-to-product
// cascade applied by an ordered consumer.
package events

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
)

// ErrTransportClosed is returned when publishing after shutdown began.
var ErrTransportClosed = errors.New("event transport closed")

// Handler receives one delivered message. Handlers must not panic the
// subscriber loop; processing errors are the consumer's concern.
type Handler func(routingKey string, payload []byte)

// Transport moves event payloads between publisher and consumer. Delivery is
// at-least-once: duplicates are possible and handlers must be idempotent.
type Transport interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}

type message struct {
	routingKey string
	payload    []byte
}

// ChannelTransport is an in-process transport backed by a buffered channel.
// Used in tests and as the default when no NATS server is configured. A
// single subscriber goroutine drains the channel, so messages are handed to
// the handler in publish order.
type ChannelTransport struct {
	ch     chan message
	closed atomic.Bool
	subOne sync.Once
}

// NewChannelTransport creates an in-process transport with the given buffer.
func NewChannelTransport(buffer int) *ChannelTransport {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelTransport{ch: make(chan message, buffer)}
}

// Publish enqueues a message. Blocks when the buffer is full.
func (t *ChannelTransport) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	select {
	case t.ch <- message{routingKey: routingKey, payload: cp}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe starts the single consumer loop. Only one subscriber is
// supported; later calls are no-ops.
func (t *ChannelTransport) Subscribe(ctx context.Context, handler Handler) error {
	t.subOne.Do(func() {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-t.ch:
					handler(msg.routingKey, msg.payload)
				}
			}
		}()
	})
	return nil
}

// Close disallows further publishes. Buffered messages already accepted are
// still delivered while the subscriber context remains live.
func (t *ChannelTransport) Close() error {
	if t.closed.CompareAndSwap(false, true) {
		log.Println("[events] in-process transport closed")
	}
	return nil
}
