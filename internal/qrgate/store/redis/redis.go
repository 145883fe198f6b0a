package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
)

// Store keeps each collection as one string key, "<prefix>:<collection>".
// Values never expire.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore dials nothing up front; the first command opens the connection.
func NewStore(addr, password, prefix string) *Store {
	return NewStoreFromClient(goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	}), prefix)
}

func NewStoreFromClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "qrgate"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(name store.Collection) string {
	return s.prefix + ":" + string(name)
}

func (s *Store) Load(ctx context.Context, name store.Collection) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", name, err)
	}
	return val, true, nil
}

func (s *Store) Save(ctx context.Context, name store.Collection, payload []byte) error {
	if err := s.client.Set(ctx, s.key(name), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

// Ping checks connectivity. Used at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
