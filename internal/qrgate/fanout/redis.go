package fanout

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis fans out over Redis pub/sub channels named "<prefix>:<topic>".
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(addr, password, prefix string) *Redis {
	return NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), prefix)
}

func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "qrgate"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) channel(topic string) string {
	return r.prefix + ":" + topic
}

func (r *Redis) Publish(ctx context.Context, topic string, data []byte) error {
	return r.client.Publish(ctx, r.channel(topic), data).Err()
}

func (r *Redis) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	ps := r.client.Subscribe(ctx, r.channel(topic))
	// Wait for the subscribe confirmation so publishes after return are seen.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	sub := &redisSub{ps: ps, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler(ctx, Message{Topic: topic, Data: []byte(m.Payload)})
			}
		}
	}()
	return sub, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type redisSub struct {
	ps   *redis.PubSub
	once sync.Once
	err  error
	done chan struct{}
}

func (s *redisSub) Close() error {
	s.once.Do(func() { s.err = s.ps.Close() })
	return s.err
}
