package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BrandonDHaskell/qrgate/internal/db"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	sqlitestore "github.com/BrandonDHaskell/qrgate/internal/qrgate/store/sqlite"
)

func TestMigrateStatus_ListsMigrationsAndCollectionVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrgate.db")
	t.Setenv("QRGATE_ENV", "prod")
	t.Setenv("QRGATE_STORE", "sqlite")
	t.Setenv("QRGATE_DB_PATH", path)

	// One station write so a collection has a version.
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	w := db.NewWorker(conn)
	if err := sqlitestore.NewCollectionStore(conn, w, nil).Save(ctx, store.Users, []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	w.Close()
	_ = conn.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"migrate", "--status"})
	if err := root.Execute(); err != nil {
		t.Fatalf("migrate --status: %v", err)
	}

	got := out.String()
	for _, want := range []string{"0001", "applied", "users", "v1", "announcements", "v0"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestMigrate_RejectsNonSQLiteStore(t *testing.T) {
	t.Setenv("QRGATE_ENV", "prod")
	t.Setenv("QRGATE_STORE", "memory")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"migrate"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected migrate to refuse a memory store")
	}
}
