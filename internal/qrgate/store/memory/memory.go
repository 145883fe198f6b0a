package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
)

// Store keeps collections in process memory. It is intended for tests and
// single-station dev runs; several stations may share one Store to model
// stations sharing a backend.
type Store struct {
	mu      sync.RWMutex
	data    map[store.Collection][]byte
	saves   map[store.Collection]int
	saveErr error
}

func New() *Store {
	return &Store{
		data:  make(map[store.Collection][]byte),
		saves: make(map[store.Collection]int),
	}
}

func (s *Store) Load(_ context.Context, name store.Collection) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[name]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *Store) Save(_ context.Context, name store.Collection, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	v := make([]byte, len(payload))
	copy(v, payload)
	s.data[name] = v
	s.saves[name]++
	return nil
}

// SetSaveError makes every subsequent Save fail with err (nil restores).
// Test-only helper.
func (s *Store) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Put writes a raw payload, bypassing SetSaveError. Test-only helper.
func (s *Store) Put(name store.Collection, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = []byte(payload)
}

// Saves returns how many successful writes a collection has received.
func (s *Store) Saves(name store.Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[name]
}
