package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// IDGenerator hands out record ids.
type IDGenerator interface {
	NewID() string
}

// QRIssuer proposes student QR codes. Callers check proposals against the
// codes already in use.
type QRIssuer interface {
	NewCode() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

const QRCodePrefix = "QR-STUDENT-"

// XIDIssuer issues "QR-STUDENT-" followed by an upper-cased xid. xids are
// unique per process and sortable by creation time.
type XIDIssuer struct{}

func (XIDIssuer) NewCode() string {
	return QRCodePrefix + strings.ToUpper(xid.New().String())
}
