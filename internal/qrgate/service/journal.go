package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
)

// journal is a station-local snapshot of an append-only, newest-first
// collection.
type journal[T any] struct {
	store store.Store
	name  store.Collection

	mu    sync.RWMutex
	items []T
}

func newJournal[T any](s store.Store, name store.Collection) *journal[T] {
	return &journal[T]{store: s, name: name, items: []T{}}
}

// load replaces the snapshot. An absent collection reads as empty.
func (j *journal[T]) load(ctx context.Context) error {
	items, _, err := store.LoadRecords[T](ctx, j.store, j.name)
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}

	j.mu.Lock()
	j.items = items
	j.mu.Unlock()
	return nil
}

// prepend re-reads the collection, puts item first and saves. The snapshot
// only advances when the save succeeds.
func (j *journal[T]) prepend(ctx context.Context, op string, item T) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	current, found, err := store.LoadRecords[T](ctx, j.store, j.name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		current = slices.Clone(j.items)
	}

	next := make([]T, 0, len(current)+1)
	next = append(next, item)
	next = append(next, current...)
	if err := store.SaveRecords(ctx, j.store, j.name, next); err != nil {
		return persistFailure(op, err)
	}
	j.items = next
	return nil
}

func (j *journal[T]) list() []T {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Clone(j.items)
}

// head returns at most n newest items.
func (j *journal[T]) head(n int) []T {
	j.mu.RLock()
	defer j.mu.RUnlock()
	n = max(0, min(n, len(j.items)))
	return slices.Clone(j.items[:n])
}
