package domain

import (
	"sort"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// MotionVector is the reported movement of a weather system. A missing
// direction, an unrecognized direction or a missing speed all mean
// "no motion data".
type MotionVector struct {
	Direction string   `json:"direction,omitempty"`
	SpeedKPH  *float64 `json:"speed,omitempty"`
}

// Heading returns the movement bearing in degrees and whether the vector
// carries usable motion data.
func (m MotionVector) Heading() (float64, bool) {
	if m.SpeedKPH == nil || *m.SpeedKPH <= 0 {
		return 0, false
	}
	return CompassHeading(m.Direction)
}

// Installation is a fixed asset being monitored, keyed by name.
type Installation struct {
	Name     string     `json:"name" yaml:"name"`
	Position Coordinate `json:"position" yaml:"position"`
}

// WarningSignalMap maps a TCWS level (1..5) to the areas listed under it.
type WarningSignalMap map[int][]string

// Levels returns the valid levels present in the map, most severe first.
// Levels outside 1..5 are ignored.
func (m WarningSignalMap) Levels() []int {
	levels := make([]int, 0, len(m))
	for level := range m {
		if level < MinSignalLevel || level > MaxSignalLevel {
			continue
		}
		levels = append(levels, level)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	return levels
}

// Signal level bounds.
const (
	MinSignalLevel = 1
	MaxSignalLevel = 5
)

// Intensity holds the optional wind figures of a bulletin, in km/h.
type Intensity struct {
	WindKPH *int `json:"winds,omitempty"`
	GustKPH *int `json:"gusts,omitempty"`
}

// WeatherReading is the structured output of the bulletin scraper.
// Position is required; everything else is optional.
type WeatherReading struct {
	SystemName        string           `json:"name"`
	SystemType        string           `json:"type,omitempty"`
	Position          *Coordinate      `json:"position,omitempty"`
	Motion            MotionVector     `json:"movement"`
	Intensity         Intensity        `json:"intensity"`
	BulletinTime      string           `json:"bulletin_time"`
	NextBulletin      string           `json:"next_bulletin,omitempty"`
	Signals           WarningSignalMap `json:"tcws_areas,omitempty"`
	Source            string           `json:"source,omitempty"`
	GuidanceAvailable bool             `json:"jtwc_available,omitempty"`
}

// HasPosition reports whether the reading can be evaluated geometrically.
func (r WeatherReading) HasPosition() bool {
	return r.Position != nil
}

// ThreatStatus is the per-installation evaluation for one cycle.
type ThreatStatus struct {
	DistanceKM   float64  `json:"distance_km"`
	Signal       *int     `json:"tcws"`
	ETAHours     *float64 `json:"eta_hours"`
	InProximity  bool     `json:"in_proximity"`
	IsThreatened bool     `json:"is_threatened"`
}

// BulletinSnapshot is one evaluated bulletin. It is what gets cached,
// archived and compared against on the next cycle.
type BulletinSnapshot struct {
	BulletinTime      string                  `json:"bulletin_time"`
	SystemName        string                  `json:"cyclone_name"`
	SystemType        string                  `json:"type"`
	Position          Coordinate              `json:"location"`
	Motion            MotionVector            `json:"movement"`
	Intensity         Intensity               `json:"intensity"`
	Installations     map[string]ThreatStatus `json:"port_status"`
	NextBulletin      string                  `json:"next_bulletin,omitempty"`
	Source            string                  `json:"source,omitempty"`
	GuidanceAvailable bool                    `json:"jtwc_available"`
}

// IsZero reports whether the snapshot is empty (nothing has been cached yet).
func (s BulletinSnapshot) IsZero() bool {
	return s.BulletinTime == "" && s.SystemName == "" && len(s.Installations) == 0
}

// ArchiveEntry is one archived snapshot with the time it was archived.
type ArchiveEntry struct {
	ArchivedAt time.Time        `json:"timestamp"`
	Snapshot   BulletinSnapshot `json:"data"`
}

// EarthquakeReading is the structured output of the earthquake feed scraper.
type EarthquakeReading struct {
	Time      string   `json:"datetime_str"`
	Magnitude float64  `json:"magnitude"`
	DepthKM   *int     `json:"depth_km,omitempty"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// EarthquakeEvent is an evaluated earthquake reading.
type EarthquakeEvent struct {
	Time        string      `json:"datetime_str"`
	Magnitude   float64     `json:"magnitude"`
	DepthKM     *int        `json:"depth_km,omitempty"`
	Location    string      `json:"location"`
	Position    *Coordinate `json:"position,omitempty"`
	Significant bool        `json:"is_significant"`
}

// IsZero reports whether the event is empty.
func (e EarthquakeEvent) IsZero() bool {
	return e.Time == "" && e.Location == "" && e.Magnitude == 0
}
