package fanout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQP fans out through one non-durable, auto-delete fanout exchange per
// topic, "<prefix>.<topic>". Each subscription binds its own exclusive
// auto-delete queue, so only connected stations receive a message.
type AMQP struct {
	conn   *amqp.Connection
	prefix string

	mu     sync.Mutex
	pub    *amqp.Channel
	exDecl map[string]bool
}

// NewAMQP dials url and opens the publishing channel.
func NewAMQP(url, prefix string) (*AMQP, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("amqp url is required")
	}
	if prefix == "" {
		prefix = "qrgate"
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	return &AMQP{
		conn:   conn,
		prefix: prefix,
		pub:    ch,
		exDecl: make(map[string]bool),
	}, nil
}

func (a *AMQP) exchange(topic string) string {
	return a.prefix + "." + topic
}

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		amqp.ExchangeFanout,
		false, // durable
		true,  // auto-delete
		false,
		false,
		nil,
	)
}

func (a *AMQP) Publish(ctx context.Context, topic string, data []byte) error {
	name := a.exchange(topic)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pub == nil {
		return ErrClosed
	}
	if !a.exDecl[name] {
		if err := declareExchange(a.pub, name); err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
		a.exDecl[name] = true
	}

	return a.pub.PublishWithContext(ctx, name, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Body:         data,
	})
}

func (a *AMQP) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	name := a.exchange(topic)

	ch, err := a.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	fail := func(err error) (Subscription, error) {
		_ = ch.Close()
		return nil, err
	}

	if err := declareExchange(ch, name); err != nil {
		return fail(fmt.Errorf("declare exchange %s: %w", name, err))
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fail(fmt.Errorf("declare queue: %w", err))
	}
	if err := ch.QueueBind(q.Name, "", name, false, nil); err != nil {
		return fail(fmt.Errorf("bind queue: %w", err))
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("consume: %w", err))
	}

	sub := &amqpSub{ch: ch}
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				handler(ctx, Message{Topic: topic, Data: d.Body})
			}
		}
	}()
	return sub, nil
}

// Close closes the publishing channel and the connection, which also ends
// every subscription.
func (a *AMQP) Close() error {
	a.mu.Lock()
	if a.pub != nil {
		_ = a.pub.Close()
		a.pub = nil
	}
	a.mu.Unlock()
	return a.conn.Close()
}

type amqpSub struct {
	ch   *amqp.Channel
	once sync.Once
	err  error
}

func (s *amqpSub) Close() error {
	s.once.Do(func() { s.err = s.ch.Close() })
	return s.err
}
