package fanout

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to or subscribing on a closed backend.
var ErrClosed = errors.New("fanout closed")

const defaultLocalBuffer = 32

// Local delivers within one process. Each subscriber owns a buffered queue;
// a message is dropped for a subscriber whose queue is full.
type Local struct {
	mu     sync.RWMutex
	subs   map[string]map[*localSub]struct{}
	buffer int
	closed bool
}

type localSub struct {
	owner *Local
	topic string
	ch    chan Message
	stop  chan struct{}
	once  sync.Once
	done  chan struct{}
}

// NewLocal returns a local backend; buffer <= 0 uses a default size.
func NewLocal(buffer int) *Local {
	if buffer <= 0 {
		buffer = defaultLocalBuffer
	}
	return &Local{
		subs:   make(map[string]map[*localSub]struct{}),
		buffer: buffer,
	}
}

func (l *Local) Publish(_ context.Context, topic string, data []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	for s := range l.subs[topic] {
		msg := Message{Topic: topic, Data: append([]byte(nil), data...)}
		select {
		case s.ch <- msg:
		default:
			// subscriber is behind; at-most-once allows the drop
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	s := &localSub{
		owner: l,
		topic: topic,
		ch:    make(chan Message, l.buffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	if l.subs[topic] == nil {
		l.subs[topic] = make(map[*localSub]struct{})
	}
	l.subs[topic][s] = struct{}{}
	l.mu.Unlock()

	go s.run(ctx, handler)
	return s, nil
}

// Close stops every subscription.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	var all []*localSub
	for _, set := range l.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	l.subs = make(map[string]map[*localSub]struct{})
	l.mu.Unlock()

	for _, s := range all {
		s.halt()
	}
	return nil
}

func (s *localSub) run(ctx context.Context, handler Handler) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.detach()
			return
		case <-s.stop:
			return
		case msg := <-s.ch:
			handler(ctx, msg)
		}
	}
}

func (s *localSub) detach() {
	s.owner.mu.Lock()
	delete(s.owner.subs[s.topic], s)
	s.owner.mu.Unlock()
}

func (s *localSub) halt() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *localSub) Close() error {
	s.detach()
	s.halt()
	return nil
}
