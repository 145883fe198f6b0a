package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/fanout"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// guardRecentLogs caps the access log a guard view can read.
const guardRecentLogs = 10

// Broadcaster is the fanout surface a station needs. *fanout.Fanout
// implements it.
type Broadcaster interface {
	Publisher
	Subscribe(ctx context.Context, topic string, handler fanout.Handler) (fanout.Subscription, error)
}

type StationConfig struct {
	ID        string
	Store     store.Store
	Fanout    Broadcaster // nil disables broadcasts
	Clock     clock.Clock
	IDs       IDGenerator
	QR        QRIssuer
	Verifier  Verifier
	Policy    AccessPolicy
	InboxSize int
	Logger    zerolog.Logger

	// Location is the station's wall-clock zone for day-based reporting.
	// nil means time.Local.
	Location *time.Location
}

// Station is one running instance: a single Session plus station-local
// snapshots of the shared collections. Every operation is gated by the
// Session's current view.
type Station struct {
	id     string
	fanout Broadcaster
	clock  clock.Clock
	logger zerolog.Logger

	directory     *Directory
	access        *AccessService
	session       *Session
	roster        *Roster
	guests        *GuestBook
	alerts        *Alerts
	announcements *Announcements
	reporter      *Reporter
	inbox         *Inbox
}

func NewStation(cfg StationConfig) *Station {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.IDs == nil {
		cfg.IDs = UUIDGenerator{}
	}
	if cfg.QR == nil {
		cfg.QR = XIDIssuer{}
	}
	logger := cfg.Logger.With().Str("station", cfg.ID).Logger()

	dir := NewDirectory(cfg.Store, cfg.Clock, cfg.IDs, cfg.QR, logger)
	access := NewAccessService(dir, cfg.Policy, cfg.Store, cfg.Clock, cfg.IDs, logger)
	return &Station{
		id:            cfg.ID,
		fanout:        cfg.Fanout,
		clock:         cfg.Clock,
		logger:        logger,
		directory:     dir,
		access:        access,
		session:       NewSession(dir, cfg.Verifier, logger),
		roster:        NewRoster(dir, logger),
		guests:        NewGuestBook(cfg.Store, cfg.Fanout, cfg.Clock, cfg.IDs, logger),
		alerts:        NewAlerts(cfg.Store, cfg.Fanout, cfg.Clock, cfg.IDs, logger),
		announcements: NewAnnouncements(cfg.Store, cfg.Clock, cfg.IDs, logger),
		reporter:      NewReporter(dir, access, cfg.Clock, cfg.Location),
		inbox:         NewInbox(cfg.InboxSize),
	}
}

func (s *Station) ID() string { return s.id }

// Boot loads the roster (seeding it if absent) and every other collection.
func (s *Station) Boot(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("Station.Boot: %w", err)
	}
	s.logger.Info().Int("users", len(s.directory.List())).Int("access_logs", len(s.access.Logs())).Msg("station booted")
	return nil
}

// Refresh reloads every collection so writes from other stations become
// visible. Every collection is attempted; failures are joined.
func (s *Station) Refresh(ctx context.Context) error {
	return errors.Join(
		s.directory.Refresh(ctx),
		s.access.Refresh(ctx),
		s.guests.Load(ctx),
		s.alerts.Load(ctx),
		s.announcements.Load(ctx),
	)
}

// Watch subscribes to both broadcast topics and feeds the inbox until ctx
// ends. It returns once the subscriptions are live.
func (s *Station) Watch(ctx context.Context) error {
	if s.fanout == nil {
		return nil
	}

	alertSub, err := s.fanout.Subscribe(ctx, fanout.TopicGuardAlerts, s.receive)
	if err != nil {
		return fmt.Errorf("Station.Watch: %w", err)
	}
	guestSub, err := s.fanout.Subscribe(ctx, fanout.TopicGuestRegistrations, s.receive)
	if err != nil {
		_ = alertSub.Close()
		return fmt.Errorf("Station.Watch: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = alertSub.Close()
		_ = guestSub.Close()
	}()
	return nil
}

func (s *Station) receive(_ context.Context, msg fanout.Message) {
	item := types.InboxItem{Topic: msg.Topic, ReceivedAt: s.clock.Now()}

	switch msg.Topic {
	case fanout.TopicGuardAlerts:
		var a types.GuardAlert
		if err := json.Unmarshal(msg.Data, &a); err != nil {
			s.logger.Debug().Err(err).Str("topic", msg.Topic).Msg("dropping undecodable broadcast")
			return
		}
		item.Alert = &a
	case fanout.TopicGuestRegistrations:
		var g types.GuestRegistration
		if err := json.Unmarshal(msg.Data, &g); err != nil {
			s.logger.Debug().Err(err).Str("topic", msg.Topic).Msg("dropping undecodable broadcast")
			return
		}
		item.Guest = &g
	default:
		return
	}
	s.inbox.Push(item)
}

// ── Session ─────────────────────────────────────────────────────────────────

func (s *Station) State() types.SessionState { return s.session.State() }

func (s *Station) Login(email, password string) (types.SessionState, error) {
	return s.session.Login(email, password)
}

func (s *Station) Logout() (types.SessionState, error) { return s.session.Logout() }

func (s *Station) SwitchToRegister() (types.SessionState, error) {
	return s.session.SwitchToRegister()
}

func (s *Station) SwitchToLogin() (types.SessionState, error) {
	return s.session.SwitchToLogin()
}

func (s *Station) Register(ctx context.Context, req types.RegisterRequest) (types.User, error) {
	return s.session.Register(ctx, req)
}

// ── Guard view ──────────────────────────────────────────────────────────────

func (s *Station) Scan(ctx context.Context, code string) (types.Decision, error) {
	guard, err := s.session.Require(types.ViewGuard)
	if err != nil {
		return types.Decision{}, err
	}
	return s.access.Scan(ctx, code, guard)
}

func (s *Station) RegisterGuest(ctx context.Context, in types.GuestInput) (types.GuestRegistration, error) {
	guard, err := s.session.Require(types.ViewGuard)
	if err != nil {
		return types.GuestRegistration{}, err
	}
	return s.guests.Register(ctx, guard, in)
}

func (s *Station) SendAlert(ctx context.Context, message string) (types.GuardAlert, error) {
	guard, err := s.session.Require(types.ViewGuard)
	if err != nil {
		return types.GuardAlert{}, err
	}
	return s.alerts.Send(ctx, guard, message)
}

// ── Shared reads ────────────────────────────────────────────────────────────

// AccessLogs returns the log newest first. Guards only see the most recent
// entries.
func (s *Station) AccessLogs() ([]types.AccessLogEntry, error) {
	u, err := s.session.Require(types.ViewGuard, types.ViewAdmin)
	if err != nil {
		return nil, err
	}
	if u.Role == types.RoleAdmin {
		return s.access.Logs(), nil
	}
	return s.access.Recent(guardRecentLogs), nil
}

func (s *Station) Guests() ([]types.GuestRegistration, error) {
	if _, err := s.session.Require(types.ViewGuard, types.ViewAdmin); err != nil {
		return nil, err
	}
	return s.guests.List(), nil
}

func (s *Station) Alerts() ([]types.GuardAlert, error) {
	if _, err := s.session.Require(types.ViewGuard, types.ViewAdmin); err != nil {
		return nil, err
	}
	return s.alerts.List(), nil
}

func (s *Station) Announcements() ([]types.Announcement, error) {
	if _, err := s.session.Require(types.ViewGuard, types.ViewAdmin); err != nil {
		return nil, err
	}
	return s.announcements.List(), nil
}

func (s *Station) Inbox() ([]types.InboxItem, error) {
	if _, err := s.session.Require(types.ViewGuard, types.ViewAdmin); err != nil {
		return nil, err
	}
	return s.inbox.List(), nil
}

// ── Admin view ──────────────────────────────────────────────────────────────

func (s *Station) Users() ([]types.User, error) {
	if _, err := s.session.Require(types.ViewAdmin); err != nil {
		return nil, err
	}
	return s.directory.List(), nil
}

func (s *Station) AddUser(ctx context.Context, in types.NewUser) (types.User, error) {
	admin, err := s.session.Require(types.ViewAdmin)
	if err != nil {
		return types.User{}, err
	}
	return s.roster.Add(ctx, admin, in)
}

func (s *Station) UpdateUser(ctx context.Context, id string, patch types.UserPatch) (types.User, error) {
	admin, err := s.session.Require(types.ViewAdmin)
	if err != nil {
		return types.User{}, err
	}
	u, err := s.roster.Update(ctx, admin, id, patch)
	if err != nil {
		return types.User{}, err
	}
	s.session.refreshUser(u)
	return u, nil
}

func (s *Station) DeleteUser(ctx context.Context, id string) error {
	admin, err := s.session.Require(types.ViewAdmin)
	if err != nil {
		return err
	}
	return s.roster.Delete(ctx, admin, id)
}

func (s *Station) ImportUsers(ctx context.Context, entries []types.NewUser) (types.ImportResult, error) {
	admin, err := s.session.Require(types.ViewAdmin)
	if err != nil {
		return types.ImportResult{}, err
	}
	return s.roster.Import(ctx, admin, entries)
}

func (s *Station) PostAnnouncement(ctx context.Context, message string) (types.Announcement, error) {
	admin, err := s.session.Require(types.ViewAdmin)
	if err != nil {
		return types.Announcement{}, err
	}
	return s.announcements.Post(ctx, admin, message)
}

func (s *Station) Report() (types.Report, error) {
	if _, err := s.session.Require(types.ViewAdmin); err != nil {
		return types.Report{}, err
	}
	return s.reporter.Build(), nil
}
