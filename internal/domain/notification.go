package domain

import "time"

// NotificationKind identifies what a notification reports.
type NotificationKind string

const (
	KindAlert      NotificationKind = "alert"
	KindStatus     NotificationKind = "status"
	KindEarthquake NotificationKind = "earthquake"
	KindError      NotificationKind = "error"
)

// StatusReport is the periodic all-clear (or still-active) report.
type StatusReport struct {
	ActiveSystem   string     `json:"active_system,omitempty"`
	ElevatedThreat bool       `json:"elevated_threat"`
	Forced         bool       `json:"forced"`
	PreviousReport *time.Time `json:"previous_report,omitempty"`
}

// Notification is a structured decision handed to the delivery channel.
// Rendering it into human-readable text is the consumer's job.
type Notification struct {
	ID         string            `json:"id"`
	Kind       NotificationKind  `json:"kind"`
	IssuedAt   time.Time         `json:"issued_at"`
	Snapshot   *BulletinSnapshot `json:"snapshot,omitempty"`
	Ranking    []string          `json:"ranking,omitempty"`
	Earthquake *EarthquakeEvent  `json:"earthquake,omitempty"`
	Status     *StatusReport     `json:"status,omitempty"`
	Error      string            `json:"error,omitempty"`
}
