package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstallations() []Installation {
	return []Installation{
		{Name: "SBITC", Position: Coordinate{Lat: 14.8045, Lon: 120.2663}},
		{Name: "MICT", Position: Coordinate{Lat: 14.6036, Lon: 120.9466}},
		{Name: "Bauan", Position: Coordinate{Lat: 13.7823, Lon: 120.9895}},
		{Name: "VCT", Position: Coordinate{Lat: 10.7064, Lon: 122.5947}},
		{Name: "MICTSI", Position: Coordinate{Lat: 8.5533, Lon: 124.7667}},
	}
}

func TestBuildThreatStatuses_ApproachingFromEast(t *testing.T) {
	statuses := BuildThreatStatuses(
		Coordinate{Lat: 12.0, Lon: 125.0},
		MotionVector{Direction: "NW", SpeedKPH: speed(20)},
		testInstallations(),
		nil,
		testResolver(),
		DefaultPolicy(),
	)
	require.Len(t, statuses, 5)

	tests := []struct {
		name     string
		distance float64
		eta      *float64
	}{
		{"SBITC", 599.5, speed(30.8)},
		{"MICT", 525.5, speed(26.8)},
		{"Bauan", 477.7, speed(25.4)},
		{"VCT", 299.1, speed(52.7)},
		{"MICTSI", 384.1, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := statuses[tc.name]
			assert.InDelta(t, tc.distance, st.DistanceKM, 0.2)
			if tc.eta == nil {
				assert.Nil(t, st.ETAHours)
			} else {
				require.NotNil(t, st.ETAHours)
				assert.InDelta(t, *tc.eta, *st.ETAHours, 0.2)
			}
			assert.Nil(t, st.Signal)
			assert.True(t, st.InProximity)
			assert.True(t, st.IsThreatened)
		})
	}
}

func TestBuildThreatStatuses_OutsideProximity(t *testing.T) {
	statuses := BuildThreatStatuses(
		Coordinate{Lat: 15.0, Lon: 123.0},
		MotionVector{Direction: "W", SpeedKPH: speed(15)},
		testInstallations(),
		nil,
		testResolver(),
		DefaultPolicy(),
	)

	far := statuses["MICTSI"]
	assert.InDelta(t, 742.2, far.DistanceKM, 0.2)
	assert.False(t, far.InProximity)
	assert.False(t, far.IsThreatened)
	assert.Nil(t, far.ETAHours)

	// Nearly perpendicular approach pushes the ETA past the 72 h horizon.
	assert.Nil(t, statuses["VCT"].ETAHours)

	mict := statuses["MICT"]
	require.NotNil(t, mict.ETAHours)
	assert.InDelta(t, 15.3, *mict.ETAHours, 0.2)
}

func TestBuildThreatStatuses_SignalWithoutProximity(t *testing.T) {
	statuses := BuildThreatStatuses(
		Coordinate{Lat: 15.0, Lon: 123.0},
		MotionVector{},
		[]Installation{{Name: "MICTSI", Position: Coordinate{Lat: 8.5533, Lon: 124.7667}}},
		WarningSignalMap{1: {"Misamis Oriental"}},
		NewSignalResolver(map[string][]string{"MICTSI": {"Misamis Oriental"}}),
		DefaultPolicy(),
	)

	st := statuses["MICTSI"]
	assert.False(t, st.InProximity)
	require.NotNil(t, st.Signal)
	assert.Equal(t, 1, *st.Signal)
	assert.True(t, st.IsThreatened)
	assert.Nil(t, st.ETAHours)
}

func TestBuildThreatStatuses_ThreatenedInvariant(t *testing.T) {
	positions := []Coordinate{{Lat: 12, Lon: 125}, {Lat: 20, Lon: 130}, {Lat: 5, Lon: 110}}
	signals := WarningSignalMap{2: {"Batangas"}, 1: {"Zambales"}}
	for _, pos := range positions {
		statuses := BuildThreatStatuses(pos, MotionVector{Direction: "W", SpeedKPH: speed(25)},
			testInstallations(), signals, testResolver(), DefaultPolicy())
		for name, st := range statuses {
			assert.Equal(t, st.Signal != nil || st.InProximity, st.IsThreatened, name)
			assert.Equal(t, st.DistanceKM <= 700, st.InProximity, name)
		}
	}
}

func TestNewSnapshot(t *testing.T) {
	r := WeatherReading{
		SystemName:   "Kristine",
		Position:     &Coordinate{Lat: 12.0, Lon: 125.0},
		Motion:       MotionVector{Direction: "NW", SpeedKPH: speed(20)},
		BulletinTime: "11:00 AM, 22 October 2024",
		NextBulletin: "5:00 PM today",
		Signals:      WarningSignalMap{2: {"Metro Manila"}},
		Source:       "PAGASA",
	}
	s := NewSnapshot(r, testInstallations(), testResolver(), DefaultPolicy())

	assert.Equal(t, "Kristine", s.SystemName)
	assert.Equal(t, "Tropical Cyclone", s.SystemType)
	assert.Equal(t, Coordinate{Lat: 12.0, Lon: 125.0}, s.Position)
	assert.Equal(t, r.BulletinTime, s.BulletinTime)
	assert.Equal(t, "PAGASA", s.Source)
	assert.Len(t, s.Installations, 5)
	require.NotNil(t, s.Installations["MICT"].Signal)
	assert.Equal(t, 2, *s.Installations["MICT"].Signal)
	assert.Equal(t, 5, s.ThreatenedCount())
	assert.False(t, s.IsZero())
}

func TestRankInstallations(t *testing.T) {
	statuses := BuildThreatStatuses(
		Coordinate{Lat: 12.0, Lon: 125.0},
		MotionVector{Direction: "NW", SpeedKPH: speed(20)},
		testInstallations(),
		nil,
		testResolver(),
		DefaultPolicy(),
	)
	assert.Equal(t, []string{"Bauan", "MICT", "VCT", "SBITC", "MICTSI"}, RankInstallations(statuses))
}

func TestRankInstallations_SignalDominates(t *testing.T) {
	two, one := 2, 1
	statuses := map[string]ThreatStatus{
		"near":   {DistanceKM: 50, InProximity: true, IsThreatened: true},
		"signal": {DistanceKM: 900, Signal: &two, IsThreatened: true},
		"weak":   {DistanceKM: 650, Signal: &one, InProximity: true, IsThreatened: true},
	}
	assert.Equal(t, []string{"signal", "weak", "near"}, RankInstallations(statuses))
}

func TestRankInstallations_TiesByName(t *testing.T) {
	statuses := map[string]ThreatStatus{
		"b": {DistanceKM: 100},
		"a": {DistanceKM: 100},
	}
	assert.Equal(t, []string{"a", "b"}, RankInstallations(statuses))
}
