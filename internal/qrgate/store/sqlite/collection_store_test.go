package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	sqlitestore "github.com/BrandonDHaskell/qrgate/internal/qrgate/store/sqlite"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// Load: absent collection
// ═══════════════════════════════════════════════════════════════════════════

func TestCollectionStore_Load_Absent(t *testing.T) {
	conn := openTestDB(t)
	cs := sqlitestore.NewCollectionStore(conn, newTestWriter(t, conn), nil)

	payload, found, err := cs.Load(context.Background(), store.Users)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found || payload != nil {
		t.Errorf("expected absent collection, got found=%v payload=%q", found, payload)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Save: insert then overwrite
// ═══════════════════════════════════════════════════════════════════════════

func TestCollectionStore_Save_InsertsThenOverwrites(t *testing.T) {
	conn := openTestDB(t)
	cs := sqlitestore.NewCollectionStore(conn, newTestWriter(t, conn), nil)
	ctx := context.Background()

	if err := cs.Save(ctx, store.AccessLogs, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := cs.Save(ctx, store.AccessLogs, []byte(`[{"id":"b"},{"id":"a"}]`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	payload, found, err := cs.Load(ctx, store.AccessLogs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected collection to be found")
	}
	if string(payload) != `[{"id":"b"},{"id":"a"}]` {
		t.Errorf("expected latest payload, got %s", payload)
	}

	var rows int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Errorf("expected a single row per collection, got %d", rows)
	}

	v, err := cs.Version(ctx, store.AccessLogs)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != 2 {
		t.Errorf("expected version 2, got %d", v)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Collections are independent
// ═══════════════════════════════════════════════════════════════════════════

func TestCollectionStore_CollectionsAreIndependent(t *testing.T) {
	conn := openTestDB(t)
	cs := sqlitestore.NewCollectionStore(conn, newTestWriter(t, conn), nil)
	ctx := context.Background()

	if err := cs.Save(ctx, store.GuardAlerts, []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, found, _ := cs.Load(ctx, store.GuestRegistrations); found {
		t.Error("guestRegistrations should still be absent")
	}
	if v, _ := cs.Version(ctx, store.Users); v != 0 {
		t.Errorf("expected version 0 for unwritten collection, got %d", v)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Typed round trip through the sqlite backend
// ═══════════════════════════════════════════════════════════════════════════

func TestCollectionStore_UserRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	cs := sqlitestore.NewCollectionStore(conn, newTestWriter(t, conn), nil)
	ctx := context.Background()
	created := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	in := []types.User{
		{ID: "2", Email: "guarda@sistema.com", Name: "Juan Pérez", Role: types.RoleGuard, CreatedAt: created},
		{ID: "4", Email: "estudiante2@sena.edu.co", Name: "Carlos Rodríguez", Role: types.RoleStudent, QRCode: "QR-STUDENT-002", CreatedAt: created},
	}
	if err := store.SaveRecords(ctx, cs, store.Users, in); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	out, found, err := store.LoadRecords[types.User](ctx, cs, store.Users)
	if err != nil || !found {
		t.Fatalf("LoadRecords: found=%v err=%v", found, err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 users, got %d", len(out))
	}
	if out[1].QRCode != "QR-STUDENT-002" || out[1].Name != "Carlos Rodríguez" {
		t.Errorf("unexpected student record: %+v", out[1])
	}
	if out[0].QRCode != "" {
		t.Errorf("guard should not have a qr code, got %q", out[0].QRCode)
	}
	if !out[0].CreatedAt.Equal(created) {
		t.Errorf("createdAt drifted: %v", out[0].CreatedAt)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Two stations on one database see each other's writes on reload
// ═══════════════════════════════════════════════════════════════════════════

func TestCollectionStore_SharedAcrossStores(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	a := sqlitestore.NewCollectionStore(conn, w, nil)
	b := sqlitestore.NewCollectionStore(conn, w, nil)
	ctx := context.Background()

	if err := a.Save(ctx, store.Announcements, []byte(`[{"id":"x"}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	payload, found, err := b.Load(ctx, store.Announcements)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if string(payload) != `[{"id":"x"}]` {
		t.Errorf("unexpected payload %s", payload)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// updated_at_ms comes from the injected clock
// ═══════════════════════════════════════════════════════════════════════════

func TestCollectionStore_Save_StampsClockTime(t *testing.T) {
	conn := openTestDB(t)
	clk := clock.Fake(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))
	cs := sqlitestore.NewCollectionStore(conn, newTestWriter(t, conn), clk)
	ctx := context.Background()

	if err := cs.Save(ctx, store.Users, []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	clk.Advance(90 * time.Second)
	if err := cs.Save(ctx, store.Users, []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var ms int64
	if err := conn.QueryRowContext(ctx, `SELECT updated_at_ms FROM collections WHERE name = ?`, "users").Scan(&ms); err != nil {
		t.Fatalf("query: %v", err)
	}
	if want := clk.Now().UnixMilli(); ms != want {
		t.Errorf("expected updated_at_ms %d, got %d", want, ms)
	}
}
