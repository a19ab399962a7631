package domain

import (
	"math"
	"slices"
)

// ShouldNotify decides whether current warrants an alert given the last
// snapshot that was notified. A nil or empty cached snapshot always alerts.
//
// ETA drift is only compared when both sides carry an ETA; a value appearing
// or disappearing at the horizon cutoff is not by itself a change.
func ShouldNotify(current BulletinSnapshot, cached *BulletinSnapshot, p Policy) bool {
	if cached == nil || cached.IsZero() {
		return true
	}
	if current.BulletinTime != cached.BulletinTime {
		return true
	}

	for _, name := range installationNames(current, *cached) {
		cur := current.Installations[name]
		prev := cached.Installations[name]

		if !sameSignal(cur.Signal, prev.Signal) {
			return true
		}
		if cur.ETAHours != nil && prev.ETAHours != nil &&
			math.Abs(*cur.ETAHours-*prev.ETAHours) > p.ETAChangeHours {
			return true
		}
	}
	return false
}

// ElevatedThreat reports whether any installation is at or above
// p.ElevatedSignal. The result gates the cadence of the next cycle.
func ElevatedThreat(s BulletinSnapshot, p Policy) bool {
	for _, st := range s.Installations {
		if st.Signal != nil && *st.Signal >= p.ElevatedSignal {
			return true
		}
	}
	return false
}

// AppendArchive appends e and evicts the oldest entries beyond limit.
// A non-positive limit keeps everything.
func AppendArchive(archive []ArchiveEntry, e ArchiveEntry, limit int) []ArchiveEntry {
	archive = append(archive, e)
	if limit > 0 && len(archive) > limit {
		archive = slices.Clone(archive[len(archive)-limit:])
	}
	return archive
}

// NewEarthquakeEvent evaluates a reading against the significance threshold.
func NewEarthquakeEvent(r EarthquakeReading, p Policy) EarthquakeEvent {
	e := EarthquakeEvent{
		Time:        r.Time,
		Magnitude:   r.Magnitude,
		DepthKM:     r.DepthKM,
		Location:    r.Location,
		Significant: r.Magnitude >= p.EarthquakeThreshold,
	}
	if r.Latitude != nil && r.Longitude != nil {
		e.Position = &Coordinate{Lat: *r.Latitude, Lon: *r.Longitude}
	}
	return e
}

// LatestSignificant returns the first significant event in a newest-first
// feed, or nil when there is none.
func LatestSignificant(readings []EarthquakeReading, p Policy) *EarthquakeEvent {
	for _, r := range readings {
		e := NewEarthquakeEvent(r, p)
		if e.Significant {
			return &e
		}
	}
	return nil
}

// ShouldNotifyEarthquake decides whether current is a new event relative to
// the cached one. Magnitude drift within p.MagnitudeTolerance is treated as a
// re-read of the same event.
func ShouldNotifyEarthquake(current EarthquakeEvent, cached *EarthquakeEvent, p Policy) bool {
	if cached == nil || cached.IsZero() {
		return true
	}
	if current.Time != cached.Time || current.Location != cached.Location {
		return true
	}
	return math.Abs(current.Magnitude-cached.Magnitude) > p.MagnitudeTolerance
}

func sameSignal(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func installationNames(a, b BulletinSnapshot) []string {
	seen := make(map[string]struct{}, len(a.Installations))
	names := make([]string, 0, len(a.Installations))
	for _, s := range []BulletinSnapshot{a, b} {
		for name := range s.Installations {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
