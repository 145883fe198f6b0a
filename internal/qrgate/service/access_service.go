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

type AccessPolicy struct {
	// AuditDenied also records denied scans, carrying the presented code.
	AuditDenied bool
}

// AccessService resolves scanned codes against the Directory and keeps the
// station's newest-first snapshot of the access log.
type AccessService struct {
	directory *Directory
	policy    AccessPolicy
	log       *journal[types.AccessLogEntry]
	clock     clock.Clock
	ids       IDGenerator
	logger    zerolog.Logger
}

func NewAccessService(dir *Directory, policy AccessPolicy, s store.Store, clk clock.Clock, ids IDGenerator, logger zerolog.Logger) *AccessService {
	return &AccessService{
		directory: dir,
		policy:    policy,
		log:       newJournal[types.AccessLogEntry](s, store.AccessLogs),
		clock:     clk,
		ids:       ids,
		logger:    logger.With().Str("component", "access").Logger(),
	}
}

// Load reads the access log. An absent collection is an empty log.
func (s *AccessService) Load(ctx context.Context) error {
	if err := s.log.load(ctx); err != nil {
		return fmt.Errorf("AccessService.Load: %w", err)
	}
	return nil
}

func (s *AccessService) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Scan decides on a presented code. The code is matched exactly; only
// surrounding whitespace is checked for blankness. A granted scan is
// committed only after the new log has been saved.
func (s *AccessService) Scan(ctx context.Context, code string, guard types.User) (types.Decision, error) {
	if strings.TrimSpace(code) == "" {
		return types.Decision{}, ErrEmptyCode
	}

	matched, err := s.directory.FindByQRCode(code)
	granted := err == nil

	if !granted && !s.policy.AuditDenied {
		s.logger.Info().Str("guard_id", guard.ID).Msg("scan denied")
		return types.Decision{Success: false}, nil
	}

	entry := types.AccessLogEntry{
		ID:        s.ids.NewID(),
		Timestamp: s.clock.Now(),
		GuardID:   guard.ID,
		GuardName: guard.Name,
	}
	if granted {
		entry.UserID = matched.ID
		entry.UserName = matched.Name
		entry.Status = types.AccessGranted
	} else {
		entry.Status = types.AccessDenied
		entry.QRCode = code
	}

	if err := s.log.prepend(ctx, "AccessService.Scan", entry); err != nil {
		return types.Decision{}, err
	}

	ev := s.logger.Info().Str("guard_id", guard.ID).Str("status", string(entry.Status))
	if granted {
		ev = ev.Str("user_id", matched.ID)
	}
	ev.Msg("scan recorded")

	d := types.Decision{Success: granted, Entry: &entry}
	if granted {
		d.MatchedUser = &matched
	}
	return d, nil
}

// Logs returns the full log, newest first.
func (s *AccessService) Logs() []types.AccessLogEntry {
	return s.log.list()
}

// Recent returns at most n newest entries.
func (s *AccessService) Recent(n int) []types.AccessLogEntry {
	return s.log.head(n)
}
