package types

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleGuard   Role = "guard"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGuard, RoleStudent:
		return true
	}
	return false
}

// CanLogin reports whether users of this role may open a session.
func (r Role) CanLogin() bool {
	return r == RoleAdmin || r == RoleGuard
}

// User is a Directory entry. QRCode is set only for students.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	QRCode    string    `json:"qrCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser carries the caller-supplied fields of a user being added.
type NewUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// UserPatch lists the fields an admin edit may change. Nil fields are left
// untouched.
type UserPatch struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
	Role  *Role   `json:"role,omitempty"`

	// ReissueQRCode replaces a student's code with a fresh one.
	ReissueQRCode bool `json:"reissueQrCode,omitempty"`
}

// ImportResult reports a bulk import. Skipped counts entries without an
// email or with an unknown role.
type ImportResult struct {
	Added   []User `json:"added"`
	Skipped int    `json:"skipped"`
}
