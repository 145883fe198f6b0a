package types

import "time"

// GuestRegistration records a visitor let in by a guard. Guests are not
// Directory entries and carry no QR code.
type GuestRegistration struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DocumentID string    `json:"documentId"`
	Phone      string    `json:"phone"`
	Host       string    `json:"host"`
	Reason     string    `json:"reason"`
	Vehicle    string    `json:"vehicle"`
	GuardID    string    `json:"guardId"`
	GuardName  string    `json:"guardName"`
	Timestamp  time.Time `json:"timestamp"`
}

type GuestInput struct {
	Name       string `json:"name"`
	DocumentID string `json:"documentId"`
	Phone      string `json:"phone"`
	Host       string `json:"host"`
	Reason     string `json:"reason"`
	Vehicle    string `json:"vehicle"`
}
