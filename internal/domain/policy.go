package domain

import "time"

// PHT is Philippine Standard Time (UTC+8, no DST).
var PHT = time.FixedZone("PHT", 8*60*60)

// Policy holds the thresholds the engine decides with. The defaults reproduce
// the long-standing alerting behaviour; changing one changes when alerts fire.
type Policy struct {
	// ProximityRadiusKM flags an installation as in range even without a signal.
	ProximityRadiusKM float64
	// ETAHorizonHours discards projections further out than this.
	ETAHorizonHours float64
	// MaxApproachAngle is the largest heading/bearing difference, in degrees,
	// for which the system still counts as approaching.
	MaxApproachAngle float64
	// ETAChangeHours is the ETA drift that warrants a fresh alert.
	ETAChangeHours float64
	// ElevatedSignal is the lowest TCWS level that tightens the cadence.
	ElevatedSignal int

	EarthquakeThreshold float64
	MagnitudeTolerance  float64

	ArchiveLimit int

	StatusInterval time.Duration
	MorningHour    int
	EveningHour    int
	Location       *time.Location
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ProximityRadiusKM:   700,
		ETAHorizonHours:     72,
		MaxApproachAngle:    90,
		ETAChangeHours:      3,
		ElevatedSignal:      2,
		EarthquakeThreshold: 3.8,
		MagnitudeTolerance:  0.2,
		ArchiveLimit:        100,
		StatusInterval:      12 * time.Hour,
		MorningHour:         7,
		EveningHour:         19,
		Location:            PHT,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return PHT
	}
	return p.Location
}
