package monitor

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
)

// LogPublisher writes notifications to the log instead of a broker. It is
// used for local runs and dry runs.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, notifications ...domain.Notification) error {
	for _, n := range notifications {
		attrs := []any{"id", n.ID, "kind", n.Kind, "issued_at", n.IssuedAt}
		switch {
		case n.Snapshot != nil && n.Kind == domain.KindAlert:
			attrs = append(attrs,
				"system", n.Snapshot.SystemName,
				"bulletin_time", n.Snapshot.BulletinTime,
				"threatened", n.Snapshot.ThreatenedCount(),
				"ranking", n.Ranking,
			)
		case n.Status != nil:
			attrs = append(attrs,
				"active_system", n.Status.ActiveSystem,
				"elevated_threat", n.Status.ElevatedThreat,
				"forced", n.Status.Forced,
			)
		case n.Earthquake != nil:
			attrs = append(attrs,
				"magnitude", n.Earthquake.Magnitude,
				"location", n.Earthquake.Location,
				"time", n.Earthquake.Time,
			)
		case n.Error != "":
			attrs = append(attrs, "error", n.Error)
		}
		p.logger.Info("notification", attrs...)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
