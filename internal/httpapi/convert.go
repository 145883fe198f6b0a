package httpapi

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	qrgatev1 "github.com/BrandonDHaskell/qrgate/api/qrgate/v1"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// ── Scan ────────────────────────────────────────────────────────────────────

func scanRequestFromProto(m *dynamicpb.Message) types.ScanRequest {
	return types.ScanRequest{Code: m.Get(fieldOf(m, "code")).String()}
}

func decisionToProto(d types.Decision) *dynamicpb.Message {
	m := qrgatev1.NewScanResponse()
	m.Set(fieldOf(m, "success"), protoreflect.ValueOfBool(d.Success))
	if d.MatchedUser != nil {
		setString(m, "matched_user_id", d.MatchedUser.ID)
		setString(m, "matched_user_name", d.MatchedUser.Name)
	}
	if d.Entry != nil {
		m.Set(fieldOf(m, "entry"), protoreflect.ValueOfMessage(accessLogEntryToProto(*d.Entry)))
	}
	return m
}

func accessLogEntryToProto(e types.AccessLogEntry) *dynamicpb.Message {
	m := qrgatev1.NewAccessLogEntry()
	setString(m, "id", e.ID)
	setString(m, "user_id", e.UserID)
	setString(m, "user_name", e.UserName)
	setString(m, "guard_id", e.GuardID)
	setString(m, "guard_name", e.GuardName)
	m.Set(fieldOf(m, "timestamp_ms"), protoreflect.ValueOfInt64(e.Timestamp.UnixMilli()))
	setString(m, "status", string(e.Status))
	setString(m, "qr_code", e.QRCode)
	return m
}

func fieldOf(m *dynamicpb.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

// setString leaves empty strings unset, as proto3 does.
func setString(m *dynamicpb.Message, name protoreflect.Name, v string) {
	if v == "" {
		return
	}
	m.Set(fieldOf(m, name), protoreflect.ValueOfString(v))
}
