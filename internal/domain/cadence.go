package domain

import "time"

// ShouldSkipCycle reports whether this invocation should do nothing. Even
// hours always run; odd hours run only while the previous cycle confirmed an
// elevated threat. force always runs.
func ShouldSkipCycle(now time.Time, force, threatFlag bool, p Policy) bool {
	if force {
		return false
	}
	if now.In(p.location()).Hour()%2 == 0 {
		return false
	}
	return !threatFlag
}

// ShouldSendStatusUpdate reports whether the periodic status report is due.
// mark is the time of the last report, nil if none was ever sent.
func ShouldSendStatusUpdate(now time.Time, mark *time.Time, p Policy) bool {
	if mark == nil || mark.IsZero() {
		return true
	}
	if now.Sub(*mark) >= p.StatusInterval {
		return true
	}

	local := now.In(p.location())
	switch hour := local.Hour(); {
	case hour >= p.MorningHour && hour < p.EveningHour:
		return mark.Before(atHour(local, p.MorningHour))
	case hour >= p.EveningHour:
		return mark.Before(atHour(local, p.EveningHour))
	default:
		return false
	}
}

// atHour returns hour:00 on the same local day as t.
func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
