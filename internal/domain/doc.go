// Package domain holds the threat evaluation and notification decision engine
// for monitored port installations. Every function here is pure: no network,
// no filesystem, no clock. Callers pass the current time and persisted state in.
//
// # Bulletin Conventions
//
// Readings arrive from the upstream scraper already structured (see
// [WeatherReading]). The conventions below describe what the scraper extracts
// from PAGASA severe weather bulletins:
//
//	Position:   decimal degrees, "12.0 °N, 125.0 °E" → (12.0, 125.0).
//	Movement:   "moving Northwestward at 20 km/h" → direction "NW", speed 20.
//	            Compass directions: N, NNE, NE, ENE, E, ESE, SE, SSE,
//	            S, SSW, SW, WSW, W, WNW, NW, NNW (22.5° apart).
//	            A trailing "WARD" is tolerated ("NWWARD" → "NW").
//	Intensity:  maximum sustained winds and gusts in km/h; absent for an LPA.
//	Signals:    TCWS #1 through #5, each followed by a list of areas.
//	            An LPA carries no signals.
//
// # Geometry
//
// Distances are haversine great-circle distances on a 6371 km sphere with no
// datum correction. Bearings use the exact atan2 initial-bearing formula.
//
// The ETA is a first-order straight-line projection: the reported speed is
// projected onto the bearing toward the installation (speed × cos Δ) and the
// distance is divided by that closing speed. It ignores track curvature,
// acceleration and recurvature, so it is an approximation and not a forecast.
// When Δ exceeds 90° the system is moving away and no ETA exists; projections
// beyond 72 hours are discarded as not actionable. Both cutoffs live in [Policy].
//
// # Signals
//
// TCWS levels are matched to installations by case-insensitive substring
// match of the installation name or one of its region aliases against each
// listed area. Levels are scanned highest first, so an installation named
// under two levels resolves to the more severe one.
//
// # Decisions
//
//	Alert:       first snapshot ever, a new bulletin time, any signal change,
//	             or an ETA moving by more than 3 hours (both sides present).
//	Elevated:    any installation at TCWS #2 or higher. Consulted by the
//	             cadence gate on the next cycle only.
//	Cadence:     even PHT hours always run; odd hours run only while elevated.
//	Status:      twice daily (07:00 and 19:00 PHT windows) with a 12 hour
//	             fallback so missed cycles self-heal.
//	Earthquake:  the newest event at or above M3.8; re-alerts only on a new
//	             time, a new location, or a magnitude drift above 0.2.
package domain
