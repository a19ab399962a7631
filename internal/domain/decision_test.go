package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func snapshotWith(bulletin string, statuses map[string]ThreatStatus) BulletinSnapshot {
	return BulletinSnapshot{
		BulletinTime:  bulletin,
		SystemName:    "Kristine",
		Position:      Coordinate{Lat: 12, Lon: 125},
		Installations: statuses,
	}
}

func TestShouldNotify(t *testing.T) {
	p := DefaultPolicy()
	base := snapshotWith("11:00 AM", map[string]ThreatStatus{
		"MICT":  {DistanceKM: 500, Signal: intp(1), ETAHours: speed(26.8)},
		"Bauan": {DistanceKM: 470, ETAHours: speed(25.4)},
	})

	tests := []struct {
		name    string
		current BulletinSnapshot
		cached  *BulletinSnapshot
		want    bool
	}{
		{"no cache", base, nil, true},
		{"empty cache", base, &BulletinSnapshot{}, true},
		{"identical", base, &base, false},
		{
			"new bulletin time",
			snapshotWith("5:00 PM", base.Installations),
			&base, true,
		},
		{
			"signal raised",
			snapshotWith("11:00 AM", map[string]ThreatStatus{
				"MICT":  {Signal: intp(3), ETAHours: speed(26.8)},
				"Bauan": {ETAHours: speed(25.4)},
			}),
			&base, true,
		},
		{
			"signal dropped",
			snapshotWith("11:00 AM", map[string]ThreatStatus{
				"MICT":  {ETAHours: speed(26.8)},
				"Bauan": {ETAHours: speed(25.4)},
			}),
			&base, true,
		},
		{
			"eta drift within tolerance",
			snapshotWith("11:00 AM", map[string]ThreatStatus{
				"MICT":  {Signal: intp(1), ETAHours: speed(24.0)},
				"Bauan": {ETAHours: speed(28.0)},
			}),
			&base, false,
		},
		{
			"eta drift beyond tolerance",
			snapshotWith("11:00 AM", map[string]ThreatStatus{
				"MICT":  {Signal: intp(1), ETAHours: speed(22.0)},
				"Bauan": {ETAHours: speed(25.4)},
			}),
			&base, true,
		},
		{
			"eta disappears",
			snapshotWith("11:00 AM", map[string]ThreatStatus{
				"MICT":  {Signal: intp(1)},
				"Bauan": {},
			}),
			&base, false,
		},
		{
			"installation gains signal",
			snapshotWith("11:00 AM", map[string]ThreatStatus{
				"MICT":  {Signal: intp(1), ETAHours: speed(26.8)},
				"Bauan": {ETAHours: speed(25.4)},
				"VCT":   {Signal: intp(1)},
			}),
			&base, true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldNotify(tc.current, tc.cached, p))
		})
	}
}

func TestShouldNotify_Reflexive(t *testing.T) {
	statuses := BuildThreatStatuses(Coordinate{Lat: 12, Lon: 125},
		MotionVector{Direction: "NW", SpeedKPH: speed(20)}, testInstallations(),
		WarningSignalMap{1: {"Batangas"}}, testResolver(), DefaultPolicy())
	s := snapshotWith("8:00 AM", statuses)
	assert.False(t, ShouldNotify(s, &s, DefaultPolicy()))
}

func TestElevatedThreat(t *testing.T) {
	p := DefaultPolicy()
	assert.False(t, ElevatedThreat(snapshotWith("", nil), p))
	assert.False(t, ElevatedThreat(snapshotWith("", map[string]ThreatStatus{
		"MICT": {Signal: intp(1), InProximity: true},
	}), p))
	assert.True(t, ElevatedThreat(snapshotWith("", map[string]ThreatStatus{
		"MICT":  {Signal: intp(1)},
		"Bauan": {Signal: intp(2)},
	}), p))
}

func TestAppendArchive(t *testing.T) {
	var archive []ArchiveEntry
	for i := range 105 {
		archive = AppendArchive(archive, ArchiveEntry{
			Snapshot: snapshotWith(string(rune('A'+i%26)), nil),
		}, 100)
	}
	require.Len(t, archive, 100)
	// The five oldest entries (i = 0..4) were evicted.
	assert.Equal(t, "F", archive[0].Snapshot.BulletinTime)
	assert.Equal(t, string(rune('A'+104%26)), archive[99].Snapshot.BulletinTime)
}

func TestAppendArchive_NoLimit(t *testing.T) {
	var archive []ArchiveEntry
	for range 3 {
		archive = AppendArchive(archive, ArchiveEntry{}, 0)
	}
	assert.Len(t, archive, 3)
}

func TestNewEarthquakeEvent(t *testing.T) {
	lat, lon := 14.1, 120.6
	e := NewEarthquakeEvent(EarthquakeReading{
		Time:      "2024-10-22 08:15",
		Magnitude: 3.8,
		DepthKM:   intp(10),
		Location:  "12 km N of Calatagan (Batangas)",
		Latitude:  &lat,
		Longitude: &lon,
	}, DefaultPolicy())

	assert.True(t, e.Significant)
	require.NotNil(t, e.Position)
	assert.Equal(t, Coordinate{Lat: 14.1, Lon: 120.6}, *e.Position)

	small := NewEarthquakeEvent(EarthquakeReading{Magnitude: 3.7, Latitude: &lat}, DefaultPolicy())
	assert.False(t, small.Significant)
	assert.Nil(t, small.Position)
}

func TestLatestSignificant(t *testing.T) {
	readings := []EarthquakeReading{
		{Time: "09:00", Magnitude: 2.1, Location: "A"},
		{Time: "08:30", Magnitude: 4.4, Location: "B"},
		{Time: "08:00", Magnitude: 5.0, Location: "C"},
	}
	e := LatestSignificant(readings, DefaultPolicy())
	require.NotNil(t, e)
	assert.Equal(t, "B", e.Location)

	assert.Nil(t, LatestSignificant(readings[:1], DefaultPolicy()))
	assert.Nil(t, LatestSignificant(nil, DefaultPolicy()))
}

func TestShouldNotifyEarthquake(t *testing.T) {
	p := DefaultPolicy()
	first := EarthquakeEvent{Time: "2024-10-22 08:15", Magnitude: 4.0, Location: "Calatagan", Significant: true}

	assert.True(t, ShouldNotifyEarthquake(first, nil, p))
	assert.True(t, ShouldNotifyEarthquake(first, &EarthquakeEvent{}, p))
	assert.False(t, ShouldNotifyEarthquake(first, &first, p))

	revised := first
	revised.Magnitude = 4.15
	assert.False(t, ShouldNotifyEarthquake(revised, &first, p))

	upgraded := first
	upgraded.Magnitude = 4.3
	assert.True(t, ShouldNotifyEarthquake(upgraded, &first, p))

	moved := first
	moved.Location = "Nasugbu"
	assert.True(t, ShouldNotifyEarthquake(moved, &first, p))

	later := first
	later.Time = "2024-10-22 09:40"
	assert.True(t, ShouldNotifyEarthquake(later, &first, p))
}
