package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	dbpkg "github.com/BrandonDHaskell/qrgate/internal/db"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
)

// CollectionStore keeps each collection as one row of the collections table.
// Reads go straight to the pool; writes are funneled through the worker.
type CollectionStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
	clock  clock.Clock
}

// NewCollectionStore stamps updated_at_ms from clk (clock.Real when nil).
func NewCollectionStore(db *sql.DB, writer *dbpkg.Worker, clk clock.Clock) *CollectionStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &CollectionStore{db: db, writer: writer, clock: clk}
}

func (s *CollectionStore) Load(ctx context.Context, name store.Collection) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
SELECT payload FROM collections WHERE name = ?;
`, string(name)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Load %s: %w", name, err)
	}
	return []byte(payload), true, nil
}

func (s *CollectionStore) Save(ctx context.Context, name store.Collection, payload []byte) error {
	nowMs := s.clock.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO collections(name, payload, version, updated_at_ms)
VALUES (?, ?, 1, ?)
ON CONFLICT(name) DO UPDATE SET
  payload       = excluded.payload,
  version       = collections.version + 1,
  updated_at_ms = excluded.updated_at_ms;
`, string(name), string(payload), nowMs); err != nil {
			return fmt.Errorf("Save %s: %w", name, err)
		}
		return nil
	})
}

// Version returns how many times a collection has been written (0 if never).
func (s *CollectionStore) Version(ctx context.Context, name store.Collection) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `
SELECT version FROM collections WHERE name = ?;
`, string(name)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Version %s: %w", name, err)
	}
	return v, nil
}
