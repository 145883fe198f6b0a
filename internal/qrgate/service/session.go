package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// Session is the station's view state. It is never persisted.
//
//	login    --Login(guard)-->      guard
//	login    --Login(admin)-->      admin
//	login    --SwitchToRegister-->  register
//	register --Register-->          login
//	register --SwitchToLogin-->     login
//	guard    --Logout-->            login
//	admin    --Logout-->            login
//
// Every other event returns ErrInvalidTransition and leaves the state alone.
type Session struct {
	directory *Directory
	verifier  Verifier
	logger    zerolog.Logger

	mu   sync.RWMutex
	view types.View
	user *types.User
}

func NewSession(dir *Directory, verifier Verifier, logger zerolog.Logger) *Session {
	if verifier == nil {
		verifier = AnySecret{}
	}
	return &Session{
		directory: dir,
		verifier:  verifier,
		logger:    logger.With().Str("component", "session").Logger(),
		view:      types.ViewLogin,
	}
}

func (s *Session) State() types.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Session) snapshot() types.SessionState {
	st := types.SessionState{View: s.view}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// Login resolves email to a guard or admin and opens the matching view.
func (s *Session) Login(email, password string) (types.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != types.ViewLogin {
		return s.snapshot(), ErrInvalidTransition
	}
	if strings.TrimSpace(email) == "" {
		return s.snapshot(), ErrEmailRequired
	}
	if strings.TrimSpace(password) == "" {
		return s.snapshot(), ErrPasswordRequired
	}

	u, err := s.directory.FindByLogin(email)
	if err != nil {
		return s.snapshot(), err
	}
	if !u.Role.CanLogin() {
		s.logger.Info().Str("user_id", u.ID).Msg("login rejected: role cannot log in")
		return s.snapshot(), ErrRoleNotLoginCapable
	}
	if !s.verifier.Verify(u.Email, password) {
		return s.snapshot(), ErrInvalidCredentials
	}

	switch u.Role {
	case types.RoleAdmin:
		s.view = types.ViewAdmin
	default:
		s.view = types.ViewGuard
	}
	s.user = &u
	s.logger.Info().Str("user_id", u.ID).Str("view", string(s.view)).Msg("login")
	return s.snapshot(), nil
}

func (s *Session) Logout() (types.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != types.ViewGuard && s.view != types.ViewAdmin {
		return s.snapshot(), ErrInvalidTransition
	}
	if s.user != nil {
		s.logger.Info().Str("user_id", s.user.ID).Msg("logout")
	}
	s.view = types.ViewLogin
	s.user = nil
	return s.snapshot(), nil
}

func (s *Session) SwitchToRegister() (types.SessionState, error) {
	return s.move(types.ViewLogin, types.ViewRegister)
}

func (s *Session) SwitchToLogin() (types.SessionState, error) {
	return s.move(types.ViewRegister, types.ViewLogin)
}

func (s *Session) move(from, to types.View) (types.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != from {
		return s.snapshot(), ErrInvalidTransition
	}
	s.view = to
	return s.snapshot(), nil
}

// Register creates a guard account and returns to the login view. It never
// creates admins or students and does not check for duplicate emails.
func (s *Session) Register(ctx context.Context, req types.RegisterRequest) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != types.ViewRegister {
		return types.User{}, ErrInvalidTransition
	}

	u, err := s.directory.Add(ctx, types.NewUser{
		Email: req.Email,
		Name:  req.Name,
		Role:  types.RoleGuard,
	})
	if err != nil {
		return types.User{}, err
	}
	s.view = types.ViewLogin
	return u, nil
}

// Require returns the signed-in user when the session is in one of views.
func (s *Session) Require(views ...types.View) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range views {
		if s.view == v && s.user != nil {
			return *s.user, nil
		}
	}
	return types.User{}, ErrForbidden
}

// refreshUser replaces the signed-in user's record after an edit.
func (s *Session) refreshUser(u types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.ID == u.ID {
		s.user = &u
	}
}
