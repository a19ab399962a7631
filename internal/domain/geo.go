package domain

import (
	"math"
	"strings"
)

// EarthRadiusKM is the mean Earth radius used for all great-circle maths.
const EarthRadiusKM = 6371.0

// compassPoints maps the 16 named compass points to degrees.
var compassPoints = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// CompassHeading converts a compass point name (case-insensitive) to degrees.
// Unknown names return false.
func CompassHeading(name string) (float64, bool) {
	d := strings.ToUpper(strings.TrimSpace(name))
	d = strings.TrimSpace(strings.TrimSuffix(d, "WARD"))
	deg, ok := compassPoints[d]
	return deg, ok
}

// Distance returns the haversine great-circle distance between a and b in km.
func Distance(a, b Coordinate) float64 {
	lat1, lat2 := toRadians(a.Lat), toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(math.Min(1, h)))
}

// Bearing returns the initial bearing from a to b in degrees, in [0, 360).
func Bearing(a, b Coordinate) float64 {
	lat1, lat2 := toRadians(a.Lat), toRadians(b.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	x := math.Sin(dLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Mod(toDegrees(math.Atan2(x, y))+360, 360)
	if deg >= 360 {
		return 0
	}
	return deg
}

// AngularDifference returns the smallest angle between two bearings, in [0, 180].
func AngularDifference(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// ProjectedETA estimates hours until a system at storm reaches target by
// projecting its speed onto the bearing toward target. It returns false when
// there is no motion data, when the system is moving away (approach angle
// above p.MaxApproachAngle), or when the estimate exceeds p.ETAHorizonHours.
//
// This is a straight-line approximation, not a track forecast.
func ProjectedETA(storm Coordinate, motion MotionVector, target Coordinate, p Policy) (float64, bool) {
	heading, ok := motion.Heading()
	if !ok {
		return 0, false
	}

	diff := AngularDifference(heading, Bearing(storm, target))
	if diff > p.MaxApproachAngle {
		return 0, false
	}

	closing := *motion.SpeedKPH * math.Cos(toRadians(diff))
	if closing <= 0 {
		return 0, false
	}

	eta := Distance(storm, target) / closing
	if eta > p.ETAHorizonHours {
		return 0, false
	}
	return eta, true
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// round1 rounds to one decimal place, the precision snapshots are stored at.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
