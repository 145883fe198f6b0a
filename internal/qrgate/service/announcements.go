package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

type Announcements struct {
	journal *journal[types.Announcement]
	clock   clock.Clock
	ids     IDGenerator
	logger  zerolog.Logger
}

func NewAnnouncements(s store.Store, clk clock.Clock, ids IDGenerator, logger zerolog.Logger) *Announcements {
	return &Announcements{
		journal: newJournal[types.Announcement](s, store.Announcements),
		clock:   clk,
		ids:     ids,
		logger:  logger.With().Str("component", "announcements").Logger(),
	}
}

func (a *Announcements) Load(ctx context.Context) error {
	if err := a.journal.load(ctx); err != nil {
		return fmt.Errorf("Announcements.Load: %w", err)
	}
	return nil
}

func (a *Announcements) Post(ctx context.Context, admin types.User, message string) (types.Announcement, error) {
	if err := requireAdmin(admin); err != nil {
		return types.Announcement{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return types.Announcement{}, ErrMessageRequired
	}

	ann := types.Announcement{ID: a.ids.NewID(), Message: message, CreatedAt: a.clock.Now()}
	if err := a.journal.prepend(ctx, "Announcements.Post", ann); err != nil {
		return types.Announcement{}, err
	}
	a.logger.Info().Str("announcement_id", ann.ID).Str("by", admin.ID).Msg("announcement posted")
	return ann, nil
}

func (a *Announcements) List() []types.Announcement {
	return a.journal.list()
}
