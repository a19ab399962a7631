// Package state persists the monitor's memory between invocations: the last
// notified snapshot, a bounded archive, the elevated-threat flag, the last
// status report time and the last notified earthquake.
//
// A Backend stores opaque bytes per slot; Store layers typed JSON records on
// top of it.
package state

import (
	"context"
	"errors"
)

// Slot names one persisted record.
type Slot string

const (
	SlotSnapshot   Slot = "last_bulletin"
	SlotArchive    Slot = "bulletin_archive"
	SlotStatusMark Slot = "last_status_update"
	SlotThreatFlag Slot = "last_threat_detected"
	SlotEarthquake Slot = "last_earthquake"
)

var (
	// ErrNotFound is returned by a Backend when a slot has never been written.
	ErrNotFound = errors.New("state: slot not found")
	// ErrCorrupt is returned by Store when a slot holds data it cannot decode.
	ErrCorrupt = errors.New("state: corrupt record")
)

// Backend is a slot-addressed byte store.
type Backend interface {
	Get(ctx context.Context, slot Slot) ([]byte, error)
	Put(ctx context.Context, slot Slot, data []byte) error
	Close() error
}
