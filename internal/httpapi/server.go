package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	qrgatev1 "github.com/BrandonDHaskell/qrgate/api/qrgate/v1"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/service"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

type Dependencies struct {
	Logger  zerolog.Logger
	Addr    string
	Station *service.Station
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	router     chi.Router
	station    *service.Station
}

func NewServer(d Dependencies) *Server {
	r := chi.NewRouter()

	s := &Server{
		logger:  d.Logger.With().Str("component", "http").Logger(),
		router:  r,
		station: d.Station,
	}

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		recoverer(s.logger),
	)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSessionState)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Post("/register", s.handleRegister)
			r.Post("/view/register", s.handleSwitchToRegister)
			r.Post("/view/login", s.handleSwitchToLogin)
		})

		r.Post("/scan", s.handleScan)
		r.Get("/access_logs", s.handleAccessLogs)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleAddUser)
			r.Post("/import", s.handleImportUsers)
			r.Patch("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})

		r.Get("/guests", s.handleListGuests)
		r.Post("/guests", s.handleRegisterGuest)
		r.Get("/alerts", s.handleListAlerts)
		r.Post("/alerts", s.handleSendAlert)
		r.Get("/announcements", s.handleListAnnouncements)
		r.Post("/announcements", s.handlePostAnnouncement)

		r.Get("/report", s.handleReport)
		r.Get("/inbox", s.handleInbox)
		r.Post("/refresh", s.handleRefresh)
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// fail writes the mapped status for err. Internal details of store failures
// are logged, not returned.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "store unavailable"
		if status == http.StatusInternalServerError {
			msg = "unexpected server error"
		}
	}
	writeError(w, status, code, msg)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "station": s.station.ID()})
}

// ── Session ─────────────────────────────────────────────────────────────────

func (s *Server) handleSessionState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.station.State())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.station.Login(req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.station.Logout)
}

func (s *Server) handleSwitchToRegister(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.station.SwitchToRegister)
}

func (s *Server) handleSwitchToLogin(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.station.SwitchToLogin)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func() (types.SessionState, error)) {
	st, err := fn()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.station.Register(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ── Guard ───────────────────────────────────────────────────────────────────

// handleScan accepts JSON or, from kiosks, protobuf. The response uses the
// request's encoding; errors are always JSON.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	useProto := isProtobuf(r)
	if useProto {
		msg := qrgatev1.NewScanRequest()
		if err := readProto(r, msg); err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return
		}
		req = scanRequestFromProto(msg)
	} else if !decodeJSON(w, r, &req) {
		return
	}

	d, err := s.station.Scan(r.Context(), req.Code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// A denial is a normal outcome, not an HTTP error.
	if useProto {
		writeProto(w, http.StatusOK, decisionToProto(d))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRegisterGuest(w http.ResponseWriter, r *http.Request) {
	var req types.GuestInput
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := s.station.RegisterGuest(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSendAlert(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := s.station.SendAlert(r.Context(), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ── Reads ───────────────────────────────────────────────────────────────────

func (s *Server) handleAccessLogs(w http.ResponseWriter, r *http.Request) {
	list(w, r, s, s.station.AccessLogs)
}

func (s *Server) handleListGuests(w http.ResponseWriter, r *http.Request) {
	list(w, r, s, s.station.Guests)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	list(w, r, s, s.station.Alerts)
}

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	list(w, r, s, s.station.Announcements)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	list(w, r, s, s.station.Inbox)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list(w, r, s, s.station.Users)
}

func list[T any](w http.ResponseWriter, r *http.Request, s *Server, fn func() ([]T, error)) {
	items, err := fn()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.station.Report()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.station.Refresh(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.station.State())
}

// ── Admin ───────────────────────────────────────────────────────────────────

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req types.NewUser
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.station.AddUser(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch types.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	u, err := s.station.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.station.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Users []types.NewUser `json:"users"`
}

func (s *Server) handleImportUsers(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.station.ImportUsers(r.Context(), req.Users)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePostAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := s.station.PostAnnouncement(r.Context(), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
