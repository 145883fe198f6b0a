package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reloader is anything that can re-read shared state. *Station implements it.
type Reloader interface {
	Refresh(ctx context.Context) error
}

// Refresher periodically reloads a station so writes from other stations
// show up without a local mutation. It runs as a background goroutine and
// is safe to stop via its context or the Stop method.
//
// An interval of 0 disables it.
type Refresher struct {
	target   Reloader
	interval time.Duration
	logger   zerolog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRefresher creates a refresher but does not start it.
func NewRefresher(target Reloader, interval time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		target:   target,
		interval: interval,
		logger:   logger.With().Str("component", "refresher").Logger(),
		done:     make(chan struct{}),
	}
}

// Start begins the loop. The first reload happens after one interval; the
// station is expected to have booted already.
func (r *Refresher) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info().Msg("refresher disabled (interval=0)")
		close(r.done)
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)

	r.logger.Info().Dur("interval", r.interval).Msg("refresher started")
}

// Stop signals the loop to exit and waits for it. It is a no-op when the
// loop was never started.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	if err := r.target.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error().Err(err).Msg("refresh failed")
	}
}
