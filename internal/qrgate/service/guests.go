package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/fanout"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// Publisher sends advisory broadcasts. *fanout.Fanout implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, topic string, v any) error
}

// announce publishes after a durable write. Failures are logged only.
func announce(ctx context.Context, pub Publisher, logger zerolog.Logger, topic string, v any) {
	if pub == nil {
		return
	}
	if err := pub.PublishJSON(ctx, topic, v); err != nil {
		logger.Warn().Err(err).Str("topic", topic).Msg("broadcast failed")
	}
}

type GuestBook struct {
	journal *journal[types.GuestRegistration]
	pub     Publisher
	clock   clock.Clock
	ids     IDGenerator
	logger  zerolog.Logger
}

func NewGuestBook(s store.Store, pub Publisher, clk clock.Clock, ids IDGenerator, logger zerolog.Logger) *GuestBook {
	return &GuestBook{
		journal: newJournal[types.GuestRegistration](s, store.GuestRegistrations),
		pub:     pub,
		clock:   clk,
		ids:     ids,
		logger:  logger.With().Str("component", "guests").Logger(),
	}
}

func (g *GuestBook) Load(ctx context.Context) error {
	if err := g.journal.load(ctx); err != nil {
		return fmt.Errorf("GuestBook.Load: %w", err)
	}
	return nil
}

// Register records a visitor let in by guard. Name and host are required;
// every field is trimmed.
func (g *GuestBook) Register(ctx context.Context, guard types.User, in types.GuestInput) (types.GuestRegistration, error) {
	reg := types.GuestRegistration{
		Name:       strings.TrimSpace(in.Name),
		DocumentID: strings.TrimSpace(in.DocumentID),
		Phone:      strings.TrimSpace(in.Phone),
		Host:       strings.TrimSpace(in.Host),
		Reason:     strings.TrimSpace(in.Reason),
		Vehicle:    strings.TrimSpace(in.Vehicle),
	}
	if reg.Name == "" {
		return types.GuestRegistration{}, ErrNameRequired
	}
	if reg.Host == "" {
		return types.GuestRegistration{}, ErrHostRequired
	}

	reg.ID = g.ids.NewID()
	reg.GuardID = guard.ID
	reg.GuardName = guard.Name
	reg.Timestamp = g.clock.Now()

	if err := g.journal.prepend(ctx, "GuestBook.Register", reg); err != nil {
		return types.GuestRegistration{}, err
	}
	g.logger.Info().Str("guest_id", reg.ID).Str("guard_id", guard.ID).Msg("guest registered")

	announce(ctx, g.pub, g.logger, fanout.TopicGuestRegistrations, reg)
	return reg, nil
}

func (g *GuestBook) List() []types.GuestRegistration {
	return g.journal.list()
}
