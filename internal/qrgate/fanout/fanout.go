// Package fanout carries advisory broadcasts between stations. Delivery is
// best-effort: unordered, at-most-once, never persisted, and only to
// subscribers connected at publish time.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	TopicGuardAlerts        = "qr-scanner-alerts"
	TopicGuestRegistrations = "guest-registrations"
)

// Message is one delivered broadcast.
type Message struct {
	Topic string
	Data  []byte
}

// Handler receives messages. There is no ack; a handler that cannot process
// a message simply drops it.
type Handler func(ctx context.Context, msg Message)

// Subscription stops delivery when closed.
type Subscription interface {
	Close() error
}

// Backend defines the broker-agnostic operations used by stations.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte) error
	// Subscribe registers handler and returns once the subscription is live.
	// Delivery runs on a backend goroutine until ctx ends or the
	// Subscription is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error)
	Close() error
}

// Fanout wraps a backend with JSON helpers.
type Fanout struct {
	backend Backend
}

func New(backend Backend) *Fanout {
	return &Fanout{backend: backend}
}

// PublishJSON encodes v and publishes it on topic.
func (f *Fanout) PublishJSON(ctx context.Context, topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	if err := f.backend.Publish(ctx, topic, data); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (f *Fanout) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	return f.backend.Subscribe(ctx, topic, handler)
}

func (f *Fanout) Close() error {
	return f.backend.Close()
}
