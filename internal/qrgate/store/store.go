package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names a shared, persisted JSON array.
type Collection string

const (
	Users              Collection = "users"
	AccessLogs         Collection = "accessLogs"
	GuestRegistrations Collection = "guestRegistrations"
	GuardAlerts        Collection = "guardAlerts"
	Announcements      Collection = "announcements"
)

// All lists every collection a station reads.
func All() []Collection {
	return []Collection{Users, AccessLogs, GuestRegistrations, GuardAlerts, Announcements}
}

// ErrCorrupt is returned when a persisted payload is not a JSON array.
var ErrCorrupt = errors.New("collection payload is not a JSON array")

// Store persists whole collections as opaque JSON documents. It gives no
// isolation and no change notification: concurrent writers race and the
// last Save wins.
type Store interface {
	// Load returns the payload and found=false when the collection has never
	// been written.
	Load(ctx context.Context, name Collection) (payload []byte, found bool, err error)
	Save(ctx context.Context, name Collection, payload []byte) error
}

// LoadRecords decodes a collection, preserving stored order.
func LoadRecords[T any](ctx context.Context, s Store, name Collection) ([]T, bool, error) {
	payload, found, err := s.Load(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", name, err)
	}
	if !found {
		return nil, false, nil
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, true, fmt.Errorf("load %s: %w", name, ErrCorrupt)
	}

	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, true, fmt.Errorf("load %s: %w: %v", name, ErrCorrupt, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, true, nil
}

// SaveRecords encodes records as a JSON array in the given order.
func SaveRecords[T any](ctx context.Context, s Store, name Collection, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.Save(ctx, name, payload); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
