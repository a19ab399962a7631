package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cycler runs one monitoring cycle.
type Cycler interface {
	RunCycle(ctx context.Context, force bool) (CycleResult, error)
}

// Scheduler runs a cycle at startup and then at the top of every hour.
type Scheduler struct {
	cycler       Cycler
	clock        clockwork.Clock
	logger       *slog.Logger
	forceInitial bool
}

// NewScheduler creates a Scheduler. forceInitial forces the startup cycle
// only; later cycles follow the normal cadence.
func NewScheduler(c Cycler, clock clockwork.Clock, logger *slog.Logger, forceInitial bool) *Scheduler {
	return &Scheduler{cycler: c, clock: clock, logger: logger, forceInitial: forceInitial}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "force_initial", s.forceInitial)
	s.runOnce(ctx, s.forceInitial)

	for {
		wait := untilNextHour(s.clock.Now())
		timer := s.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-timer.Chan():
			s.runOnce(ctx, false)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, force bool) {
	if _, err := s.cycler.RunCycle(ctx, force); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("cycle failed", "error", err)
	}
}

// untilNextHour returns the wait until the next top of the hour.
func untilNextHour(now time.Time) time.Duration {
	next := now.Truncate(time.Hour).Add(time.Hour)
	return next.Sub(now)
}
