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

const DefaultAlertMessage = "Alerta desde guarda"

type Alerts struct {
	journal *journal[types.GuardAlert]
	pub     Publisher
	clock   clock.Clock
	ids     IDGenerator
	logger  zerolog.Logger
}

func NewAlerts(s store.Store, pub Publisher, clk clock.Clock, ids IDGenerator, logger zerolog.Logger) *Alerts {
	return &Alerts{
		journal: newJournal[types.GuardAlert](s, store.GuardAlerts),
		pub:     pub,
		clock:   clk,
		ids:     ids,
		logger:  logger.With().Str("component", "alerts").Logger(),
	}
}

func (a *Alerts) Load(ctx context.Context) error {
	if err := a.journal.load(ctx); err != nil {
		return fmt.Errorf("Alerts.Load: %w", err)
	}
	return nil
}

// Send raises an alert. A blank message uses DefaultAlertMessage.
func (a *Alerts) Send(ctx context.Context, guard types.User, message string) (types.GuardAlert, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultAlertMessage
	}

	alert := types.GuardAlert{
		ID:        a.ids.NewID(),
		GuardID:   guard.ID,
		GuardName: guard.Name,
		Message:   message,
		Timestamp: a.clock.Now(),
		Status:    types.AlertStatusNew,
	}
	if err := a.journal.prepend(ctx, "Alerts.Send", alert); err != nil {
		return types.GuardAlert{}, err
	}
	a.logger.Warn().Str("alert_id", alert.ID).Str("guard_id", guard.ID).Msg("guard alert")

	announce(ctx, a.pub, a.logger, fanout.TopicGuardAlerts, alert)
	return alert, nil
}

func (a *Alerts) List() []types.GuardAlert {
	return a.journal.list()
}
