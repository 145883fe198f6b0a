package db_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/BrandonDHaskell/qrgate/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenMemory(context.Background(), t.Name())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOpen_CreatesFileAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "qrgate.db")
	conn, err := db.Open(context.Background(), db.Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM collections`).Scan(&n); err != nil {
		t.Fatalf("collections table missing: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty collections table, got %d rows", n)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	status, err := db.Status(ctx, conn)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(status) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for _, s := range status {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.Name)
		}
	}
	if status[0].Version != 1 {
		t.Errorf("expected first migration version 1, got %d", status[0].Version)
	}
}

// ── Worker ───────────────────────────────────────────────────────────────────

func TestWorker_CommitsAndRollsBack(t *testing.T) {
	conn := openTestDB(t)
	w := db.NewWorker(conn)
	defer w.Close()
	ctx := context.Background()

	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO collections(name, payload, updated_at_ms) VALUES ('users', '[]', 1)`)
		return err
	})
	if err != nil {
		t.Fatalf("Do commit: %v", err)
	}

	boom := errors.New("boom")
	err = w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections(name, payload, updated_at_ms) VALUES ('accessLogs', '[]', 1)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM collections`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected only the committed row, got %d", n)
	}
}

func TestWorker_DoAfterClose(t *testing.T) {
	conn := openTestDB(t)
	w := db.NewWorker(conn)
	w.Close()
	w.Close()

	err := w.Do(context.Background(), func(context.Context, *sql.Tx) error { return nil })
	if !errors.Is(err, db.ErrWorkerClosed) {
		t.Fatalf("expected ErrWorkerClosed, got %v", err)
	}
}

func TestWorker_CancelledContext(t *testing.T) {
	conn := openTestDB(t)
	w := db.NewWorker(conn)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Do(ctx, func(context.Context, *sql.Tx) error {
		t.Error("fn must not run for a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
