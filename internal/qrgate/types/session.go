package types

import "time"

type View string

const (
	ViewLogin    View = "login"
	ViewRegister View = "register"
	ViewGuard    View = "guard"
	ViewAdmin    View = "admin"
)

// SessionState is a read-only snapshot of a station's session.
type SessionState struct {
	View View  `json:"view"`
	User *User `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type Report struct {
	TotalUsers    int              `json:"totalUsers"`
	ByRole        map[Role]int     `json:"byRole"`
	TodayAccesses int              `json:"todayAccesses"`
	Recent        []AccessLogEntry `json:"recent"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}
