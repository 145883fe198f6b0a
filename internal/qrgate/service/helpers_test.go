package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/service"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store/memory"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

var testEpoch = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// seqIDs hands out "id-1", "id-2", ...
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// scriptedQR returns codes in order, then falls back to a counter.
type scriptedQR struct {
	mu    sync.Mutex
	codes []string
	n     int
}

func (q *scriptedQR) NewCode() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.codes) > 0 {
		c := q.codes[0]
		q.codes = q.codes[1:]
		return c
	}
	q.n++
	return fmt.Sprintf("QR-TEST-%03d", q.n)
}

type fixture struct {
	store *memory.Store
	clock *clock.FakeClock
	ids   *seqIDs
	qr    *scriptedQR
	dir   *service.Directory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, memory.New())
}

// newFixtureOn builds a directory over an existing store, the way a second
// station shares a backend with the first.
func newFixtureOn(t *testing.T, ms *memory.Store) *fixture {
	t.Helper()
	f := &fixture{
		store: ms,
		clock: clock.Fake(testEpoch),
		ids:   &seqIDs{},
		qr:    &scriptedQR{},
	}
	f.dir = newDirectory(f)
	if err := f.dir.Load(context.Background()); err != nil {
		t.Fatalf("Directory.Load: %v", err)
	}
	return f
}

func newDirectory(f *fixture) *service.Directory {
	return service.NewDirectory(f.store, f.clock, f.ids, f.qr, zerolog.Nop())
}

// unloaded returns a fixture whose directory has not been loaded yet.
func unloaded(ms *memory.Store) *fixture {
	f := &fixture{store: ms, clock: clock.Fake(testEpoch), ids: &seqIDs{}, qr: &scriptedQR{}}
	f.dir = newDirectory(f)
	return f
}

func mustFind(t *testing.T, dir *service.Directory, email string) types.User {
	t.Helper()
	u, err := dir.FindByLogin(email)
	if err != nil {
		t.Fatalf("FindByLogin(%q): %v", email, err)
	}
	return u
}

// recordingPublisher captures broadcasts and can be told to fail.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	values []any
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, topic string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.values = append(p.values, v)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}
