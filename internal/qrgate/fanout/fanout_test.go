package fanout_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/fanout"
)

func receive(t *testing.T, ch <-chan fanout.Message) fanout.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return fanout.Message{}
}

func expectNone(t *testing.T, ch <-chan fanout.Message) {
	t.Helper()
	select {
	case m := <-ch:
		t.Fatalf("unexpected message on %s: %s", m.Topic, m.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func collector(buf int) (fanout.Handler, <-chan fanout.Message) {
	ch := make(chan fanout.Message, buf)
	return func(_ context.Context, m fanout.Message) {
		select {
		case ch <- m:
		default:
		}
	}, ch
}

// ── Local ───────────────────────────────────────────────────────────────────

func TestLocal_DeliversToEverySubscriber(t *testing.T) {
	l := fanout.NewLocal(8)
	t.Cleanup(func() { _ = l.Close() })
	ctx := context.Background()

	h1, c1 := collector(4)
	h2, c2 := collector(4)
	if _, err := l.Subscribe(ctx, fanout.TopicGuardAlerts, h1); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := l.Subscribe(ctx, fanout.TopicGuardAlerts, h2); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := l.Publish(ctx, fanout.TopicGuardAlerts, []byte(`{"id":"a1"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, c := range []<-chan fanout.Message{c1, c2} {
		m := receive(t, c)
		if m.Topic != fanout.TopicGuardAlerts || string(m.Data) != `{"id":"a1"}` {
			t.Errorf("unexpected message %+v", m)
		}
	}
}

func TestLocal_TopicsAreIsolated(t *testing.T) {
	l := fanout.NewLocal(8)
	t.Cleanup(func() { _ = l.Close() })
	ctx := context.Background()

	h, c := collector(4)
	if _, err := l.Subscribe(ctx, fanout.TopicGuestRegistrations, h); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	_ = l.Publish(ctx, fanout.TopicGuardAlerts, []byte(`{}`))
	expectNone(t, c)
}

func TestLocal_PublishWithoutSubscribersSucceeds(t *testing.T) {
	l := fanout.NewLocal(0)
	t.Cleanup(func() { _ = l.Close() })
	if err := l.Publish(context.Background(), fanout.TopicGuardAlerts, []byte(`{}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestLocal_ClosedSubscriptionStopsDelivery(t *testing.T) {
	l := fanout.NewLocal(8)
	t.Cleanup(func() { _ = l.Close() })
	ctx := context.Background()

	h, c := collector(4)
	sub, err := l.Subscribe(ctx, fanout.TopicGuardAlerts, h)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_ = l.Publish(ctx, fanout.TopicGuardAlerts, []byte(`{}`))
	expectNone(t, c)
}

func TestLocal_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	l := fanout.NewLocal(1)
	t.Cleanup(func() { _ = l.Close() })
	ctx := context.Background()

	release := make(chan struct{})
	got := make(chan fanout.Message, 16)
	_, err := l.Subscribe(ctx, fanout.TopicGuardAlerts, func(_ context.Context, m fanout.Message) {
		<-release
		got <- m
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = l.Publish(ctx, fanout.TopicGuardAlerts, []byte{byte('0' + i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	close(release)

	// One message in the handler plus at most one buffered.
	n := 0
	for {
		select {
		case <-got:
			n++
			continue
		case <-time.After(100 * time.Millisecond):
		}
		break
	}
	if n == 0 || n > 2 {
		t.Errorf("expected 1 or 2 deliveries, got %d", n)
	}
}

func TestLocal_ContextCancelEndsSubscription(t *testing.T) {
	l := fanout.NewLocal(8)
	t.Cleanup(func() { _ = l.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	h, c := collector(4)
	if _, err := l.Subscribe(ctx, fanout.TopicGuardAlerts, h); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)

	_ = l.Publish(context.Background(), fanout.TopicGuardAlerts, []byte(`{}`))
	expectNone(t, c)
}

func TestLocal_ClosedBackendRejects(t *testing.T) {
	l := fanout.NewLocal(8)
	_ = l.Close()
	if err := l.Publish(context.Background(), fanout.TopicGuardAlerts, nil); err != fanout.ErrClosed {
		t.Errorf("expected ErrClosed from Publish, got %v", err)
	}
	if _, err := l.Subscribe(context.Background(), fanout.TopicGuardAlerts, func(context.Context, fanout.Message) {}); err != fanout.ErrClosed {
		t.Errorf("expected ErrClosed from Subscribe, got %v", err)
	}
}

// ── Fanout wrapper ──────────────────────────────────────────────────────────

func TestFanout_PublishJSON(t *testing.T) {
	f := fanout.New(fanout.NewLocal(4))
	t.Cleanup(func() { _ = f.Close() })
	ctx := context.Background()

	h, c := collector(1)
	if _, err := f.Subscribe(ctx, fanout.TopicGuestRegistrations, h); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	type guest struct {
		Name string `json:"name"`
	}
	if err := f.PublishJSON(ctx, fanout.TopicGuestRegistrations, guest{Name: "Ana"}); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}

	var g guest
	if err := json.Unmarshal(receive(t, c).Data, &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.Name != "Ana" {
		t.Errorf("expected Ana, got %q", g.Name)
	}
}

func TestFanout_PublishJSONRejectsUnencodable(t *testing.T) {
	f := fanout.New(fanout.NewLocal(4))
	t.Cleanup(func() { _ = f.Close() })
	if err := f.PublishJSON(context.Background(), fanout.TopicGuardAlerts, make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
}

// ── Redis ───────────────────────────────────────────────────────────────────

func TestRedis_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	r := fanout.NewRedis(mr.Addr(), "", "test")
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()

	h, c := collector(4)
	sub, err := r.Subscribe(ctx, fanout.TopicGuardAlerts, h)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	t.Cleanup(func() { _ = sub.Close() })

	if err := r.Publish(ctx, fanout.TopicGuardAlerts, []byte(`{"id":"x"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	m := receive(t, c)
	if m.Topic != fanout.TopicGuardAlerts || string(m.Data) != `{"id":"x"}` {
		t.Errorf("unexpected message %+v", m)
	}
}

func TestRedis_SubscribeFailsWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	r := fanout.NewRedis(mr.Addr(), "", "test")
	t.Cleanup(func() { _ = r.Close() })
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := r.Subscribe(ctx, fanout.TopicGuardAlerts, func(context.Context, fanout.Message) {}); err == nil {
		t.Fatal("expected subscribe error")
	}
}

// ── AMQP ────────────────────────────────────────────────────────────────────

func TestNewAMQP_RequiresURL(t *testing.T) {
	if _, err := fanout.NewAMQP("  ", "qrgate"); err == nil {
		t.Fatal("expected error for empty url")
	}
}
