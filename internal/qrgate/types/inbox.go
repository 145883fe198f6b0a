package types

import "time"

// InboxItem is one broadcast a station received from the fanout. Exactly one
// of Alert and Guest is set.
type InboxItem struct {
	Topic      string             `json:"topic"`
	ReceivedAt time.Time          `json:"receivedAt"`
	Alert      *GuardAlert        `json:"alert,omitempty"`
	Guest      *GuestRegistration `json:"guest,omitempty"`
}
