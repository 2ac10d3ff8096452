package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"traject/internal/shared/events"
)

// ErrNoSubscribers is returned for a topic nobody listens to. The outbox relay
// treats it like any publish failure and keeps the row pending.
var ErrNoSubscribers = errors.New("messaging: topic has no subscribers")

// Handler consumes one delivered envelope.
type Handler func(context.Context, events.Envelope) error

type subscription struct {
	id      uint64
	group   string
	handler Handler
}

// Bus is the in-process event bus used when no external broker is configured.
// Delivery is synchronous: Publish returns only after every subscriber of the
// topic handled the event, and reports their failures.
type Bus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[string][]subscription
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]subscription),
		logger:      logger,
	}
}

// Publish runs every handler registered for topic in registration order. A
// failing handler does not stop the others; the joined error makes the caller
// redeliver, so handlers must tolerate duplicates.
func (b *Bus) Publish(ctx context.Context, topic string, event events.Envelope) error {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSubscribers, topic)
	}

	var errs []error
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sub.handler(ctx, event); err != nil {
			b.logger.Error("consumer handler failed",
				"event", "bus_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.group,
				"event_id", event.EventID,
				"error", err.Error(),
			)
			errs = append(errs, fmt.Errorf("%s: %w", sub.group, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	b.logger.Debug("event delivered",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"subscriber_count", len(subs),
	)
	return nil
}

// Subscribe registers handler for topic under consumer group name group and
// returns the func that removes it again.
func (b *Bus) Subscribe(topic string, group string, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[topic] = append(b.subscribers[topic], subscription{id: id, group: group, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		kept := b.subscribers[topic][:0:0]
		for _, sub := range b.subscribers[topic] {
			if sub.id != id {
				kept = append(kept, sub)
			}
		}
		b.subscribers[topic] = kept
	}
}
