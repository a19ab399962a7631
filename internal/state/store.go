package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
)

// Store reads and writes typed records through a Backend.
type Store struct {
	backend      Backend
	compressArch bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCompressedArchive gzips the archive slot on write. Reads accept both
// compressed and plain archives.
func WithCompressedArchive() StoreOption {
	return func(s *Store) { s.compressArch = true }
}

// NewStore wraps a backend.
func NewStore(b Backend, opts ...StoreOption) *Store {
	s := &Store{backend: b}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

type threatRecord struct {
	ThreatDetected bool      `json:"has_elevated_threat"`
	LastCheck      time.Time `json:"last_check"`
}

type statusRecord struct {
	LastUpdate time.Time `json:"last_update"`
}

// LoadSnapshot returns the last notified snapshot, or nil if none was saved.
func (s *Store) LoadSnapshot(ctx context.Context) (*domain.BulletinSnapshot, error) {
	var snap domain.BulletinSnapshot
	found, err := s.load(ctx, SlotSnapshot, &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot replaces the cached snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.BulletinSnapshot) error {
	return s.save(ctx, SlotSnapshot, snap)
}

// LoadArchive returns the archived snapshots, oldest first.
func (s *Store) LoadArchive(ctx context.Context) ([]domain.ArchiveEntry, error) {
	data, err := s.backend.Get(ctx, SlotArchive)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err = maybeGunzip(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, SlotArchive, err)
	}
	var archive []domain.ArchiveEntry
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, SlotArchive, err)
	}
	return archive, nil
}

// AppendArchive adds an entry and trims the archive to limit entries. An
// unreadable archive is started over rather than blocking new entries.
func (s *Store) AppendArchive(ctx context.Context, entry domain.ArchiveEntry, limit int) error {
	archive, err := s.LoadArchive(ctx)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	archive = domain.AppendArchive(archive, entry, limit)

	data, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("encode %s: %w", SlotArchive, err)
	}
	if s.compressArch {
		if data, err = gzipBytes(data); err != nil {
			return fmt.Errorf("compress %s: %w", SlotArchive, err)
		}
	}
	return s.backend.Put(ctx, SlotArchive, data)
}

// LoadThreatFlag returns whether the previous cycle saw an elevated threat.
// A missing flag reads as false.
func (s *Store) LoadThreatFlag(ctx context.Context) (bool, error) {
	var rec threatRecord
	if _, err := s.load(ctx, SlotThreatFlag, &rec); err != nil {
		return false, err
	}
	return rec.ThreatDetected, nil
}

// SaveThreatFlag records the elevated-threat flag for the next cycle.
func (s *Store) SaveThreatFlag(ctx context.Context, elevated bool, at time.Time) error {
	return s.save(ctx, SlotThreatFlag, threatRecord{ThreatDetected: elevated, LastCheck: at})
}

// LoadStatusMark returns when the last status report was sent, or nil.
func (s *Store) LoadStatusMark(ctx context.Context) (*time.Time, error) {
	var rec statusRecord
	found, err := s.load(ctx, SlotStatusMark, &rec)
	if err != nil || !found || rec.LastUpdate.IsZero() {
		return nil, err
	}
	return &rec.LastUpdate, nil
}

// SaveStatusMark records that a status report was sent at t.
func (s *Store) SaveStatusMark(ctx context.Context, t time.Time) error {
	return s.save(ctx, SlotStatusMark, statusRecord{LastUpdate: t})
}

// LoadEarthquakeCache returns the last notified earthquake, or nil.
func (s *Store) LoadEarthquakeCache(ctx context.Context) (*domain.EarthquakeEvent, error) {
	var e domain.EarthquakeEvent
	found, err := s.load(ctx, SlotEarthquake, &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

// SaveEarthquakeCache replaces the cached earthquake.
func (s *Store) SaveEarthquakeCache(ctx context.Context, e domain.EarthquakeEvent) error {
	return s.save(ctx, SlotEarthquake, e)
}

func (s *Store) load(ctx context.Context, slot Slot, v any) (bool, error) {
	data, err := s.backend.Get(ctx, slot)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrCorrupt, slot, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, slot Slot, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	return s.backend.Put(ctx, slot, data)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func maybeGunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close() //nolint:errcheck // read-only
	return io.ReadAll(zr)
}
