package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding category events.
	StreamName = "CATALOG"
	// SubjectPrefix maps routing keys onto NATS subjects.
	SubjectPrefix = "catalog."
	// SubjectWildcard binds every category routing key to the stream, the
	// equivalent of the original topic binding "category.*".
	SubjectWildcard = "catalog.category.>"
	// ConsumerName is the durable cascade consumer.
	ConsumerName = "category-cascade"
)

// NATSConfig holds JetStream transport configuration.
type NATSConfig struct {
	URL     string
	AckWait time.Duration
	MaxAge  time.Duration
}

// DefaultNATSConfig returns the default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:     "nats://localhost:4222",
		AckWait: 30 * time.Second,
		MaxAge:  24 * time.Hour,
	}
}

// NATSTransport is the durable transport backed by NATS JetStream.
type NATSTransport struct {
	cfg      NATSConfig
	nc       *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
}

// NewNATSTransport creates an unconnected JetStream transport.
func NewNATSTransport(cfg NATSConfig) *NATSTransport {
	return &NATSTransport{cfg: cfg}
}

// Connect establishes the NATS connection and ensures stream and consumer.
func (t *NATSTransport) Connect(ctx context.Context) error {
	nc, err := nats.Connect(t.cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	t.nc = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	t.js = js

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Category event pipeline",
		Subjects:    []string{SubjectWildcard},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      t.cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	t.stream = stream

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          ConsumerName,
		Durable:       ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       t.cfg.AckWait,
		FilterSubject: SubjectWildcard,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	t.consumer = consumer

	log.Printf("[events] Connected to NATS at %s, stream %s ready", t.cfg.URL, StreamName)
	return nil
}

// Publish sends the payload under the subject derived from routingKey.
func (t *NATSTransport) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if t.js == nil {
		return ErrTransportClosed
	}
	ack, err := t.js.Publish(ctx, SubjectPrefix+routingKey, payload)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	log.Printf("[events] published %s, stream %s seq %d", routingKey, ack.Stream, ack.Sequence)
	return nil
}

// Subscribe drains the durable consumer, invoking handler for each message.
// Messages are acknowledged unconditionally: failed processing is logged and
// dropped by the consumer, never redelivered.
func (t *NATSTransport) Subscribe(ctx context.Context, handler Handler) error {
	if t.consumer == nil {
		return fmt.Errorf("consumer not initialized")
	}

	go func() {
		iter, err := t.consumer.Messages()
		if err != nil {
			log.Printf("[events] error creating message iterator: %v", err)
			return
		}
		defer iter.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			msg, err := iter.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[events] error fetching message: %v", err)
				continue
			}
			handler(strings.TrimPrefix(msg.Subject(), SubjectPrefix), msg.Data())
			if err := msg.Ack(); err != nil {
				log.Printf("[events] error acking message: %v", err)
			}
		}
	}()

	return nil
}

// Close closes the NATS connection.
func (t *NATSTransport) Close() error {
	if t.nc != nil {
		t.nc.Close()
		log.Println("[events] NATS connection closed")
	}
	return nil
}
