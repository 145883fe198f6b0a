package types

import "time"

type AccessStatus string

const (
	AccessGranted AccessStatus = "granted"
	AccessDenied  AccessStatus = "denied"
)

// AccessLogEntry is one immutable audit record. QRCode is only populated on
// denied entries, which are written when denied-scan auditing is enabled.
type AccessLogEntry struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	UserName  string       `json:"userName"`
	Timestamp time.Time    `json:"timestamp"`
	GuardID   string       `json:"guardId"`
	GuardName string       `json:"guardName"`
	Status    AccessStatus `json:"status"`
	QRCode    string       `json:"qrCode,omitempty"`
}

type ScanRequest struct {
	Code string `json:"code"`
}

// Decision is the outcome of one scan.
type Decision struct {
	Success     bool            `json:"success"`
	MatchedUser *User           `json:"matchedUser"`
	Entry       *AccessLogEntry `json:"entry,omitempty"`
}
