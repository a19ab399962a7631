package domain

import (
	"cmp"
	"math"
	"slices"
)

// BuildThreatStatuses evaluates every installation against a system at pos.
// ETAs are only computed when motion carries both direction and speed.
func BuildThreatStatuses(
	pos Coordinate,
	motion MotionVector,
	installations []Installation,
	signals WarningSignalMap,
	resolver *SignalResolver,
	p Policy,
) map[string]ThreatStatus {
	statuses := make(map[string]ThreatStatus, len(installations))
	for _, inst := range installations {
		distance := Distance(pos, inst.Position)
		signal := resolver.Resolve(inst.Name, signals)

		var eta *float64
		if hours, ok := ProjectedETA(pos, motion, inst.Position, p); ok {
			rounded := round1(hours)
			eta = &rounded
		}

		inProximity := distance <= p.ProximityRadiusKM
		statuses[inst.Name] = ThreatStatus{
			DistanceKM:   round1(distance),
			Signal:       signal,
			ETAHours:     eta,
			InProximity:  inProximity,
			IsThreatened: signal != nil || inProximity,
		}
	}
	return statuses
}

// NewSnapshot evaluates a reading into a snapshot. The reading must carry a
// position; callers check HasPosition first.
func NewSnapshot(r WeatherReading, installations []Installation, resolver *SignalResolver, p Policy) BulletinSnapshot {
	var pos Coordinate
	if r.Position != nil {
		pos = *r.Position
	}
	systemType := r.SystemType
	if systemType == "" {
		systemType = "Tropical Cyclone"
	}
	return BulletinSnapshot{
		BulletinTime:      r.BulletinTime,
		SystemName:        r.SystemName,
		SystemType:        systemType,
		Position:          pos,
		Motion:            r.Motion,
		Intensity:         r.Intensity,
		Installations:     BuildThreatStatuses(pos, r.Motion, installations, r.Signals, resolver, p),
		NextBulletin:      r.NextBulletin,
		Source:            r.Source,
		GuidanceAvailable: r.GuidanceAvailable,
	}
}

// ThreatenedCount returns how many installations are threatened.
func (s BulletinSnapshot) ThreatenedCount() int {
	n := 0
	for _, st := range s.Installations {
		if st.IsThreatened {
			n++
		}
	}
	return n
}

// RankInstallations orders installation names most threatened first. The
// score weighs signal level, then proximity, then a nearer ETA, then a
// shorter distance. Ties fall back to name order.
func RankInstallations(statuses map[string]ThreatStatus) []string {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(threatScore(statuses[b]), threatScore(statuses[a])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}

func threatScore(s ThreatStatus) float64 {
	score := 0.0
	if s.Signal != nil {
		score += float64(*s.Signal) * 1000
	}
	if s.InProximity {
		score += 500
	}
	if s.ETAHours != nil {
		score += 100 - math.Min(*s.ETAHours, 100)
	}
	score += (1000 - math.Min(s.DistanceKM, 1000)) / 10
	return score
}
