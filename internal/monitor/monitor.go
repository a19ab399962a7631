// Package monitor runs the hourly monitoring cycle: it acquires the current
// readings, evaluates them against the installation catalog, publishes the
// resulting notifications and persists what the next cycle compares against.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
	"github.com/couchcryptid/storm-port-monitor/internal/observability"
)

// WeatherSource returns the current weather reading, or nil when no system
// is active.
type WeatherSource interface {
	FetchWeather(ctx context.Context) (*domain.WeatherReading, error)
}

// EarthquakeSource returns recent earthquake readings, newest first.
type EarthquakeSource interface {
	FetchEarthquakes(ctx context.Context) ([]domain.EarthquakeReading, error)
}

// Publisher delivers notifications.
type Publisher interface {
	Publish(ctx context.Context, notifications ...domain.Notification) error
}

// Store persists state between cycles. *state.Store implements it.
type Store interface {
	LoadSnapshot(ctx context.Context) (*domain.BulletinSnapshot, error)
	SaveSnapshot(ctx context.Context, s domain.BulletinSnapshot) error
	AppendArchive(ctx context.Context, e domain.ArchiveEntry, limit int) error
	LoadThreatFlag(ctx context.Context) (bool, error)
	SaveThreatFlag(ctx context.Context, elevated bool, at time.Time) error
	LoadStatusMark(ctx context.Context) (*time.Time, error)
	SaveStatusMark(ctx context.Context, t time.Time) error
	LoadEarthquakeCache(ctx context.Context) (*domain.EarthquakeEvent, error)
	SaveEarthquakeCache(ctx context.Context, e domain.EarthquakeEvent) error
}

// Settings holds what the monitor evaluates against.
type Settings struct {
	Installations []domain.Installation
	Resolver      *domain.SignalResolver
	Policy        domain.Policy
	// FetchTimeout bounds each acquisition. Zero means no extra bound.
	FetchTimeout time.Duration
}

// CycleResult summarizes one RunCycle call.
type CycleResult struct {
	Skipped bool
	Forced  bool

	// ActiveSystem is set when a positioned system was evaluated.
	ActiveSystem   bool
	Snapshot       *domain.BulletinSnapshot
	ElevatedThreat bool

	Alerted           bool
	StatusSent        bool
	EarthquakeAlerted bool

	// WeatherErr is the acquisition failure that skipped the typhoon
	// section, if any.
	WeatherErr error

	Published []domain.Notification
}

// Monitor evaluates one cycle at a time.
type Monitor struct {
	weather   WeatherSource
	quakes    EarthquakeSource
	store     Store
	publisher Publisher
	settings  Settings
	clock     clockwork.Clock
	newID     func() string
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu    sync.Mutex
	ready atomic.Bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithEarthquakes enables the earthquake section.
func WithEarthquakes(src EarthquakeSource) Option {
	return func(m *Monitor) { m.quakes = src }
}

// WithIDGenerator replaces the notification ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Monitor) { m.newID = fn }
}

// New creates a Monitor.
func New(
	weather WeatherSource,
	store Store,
	publisher Publisher,
	settings Settings,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts ...Option,
) *Monitor {
	m := &Monitor{
		weather:   weather,
		store:     store,
		publisher: publisher,
		settings:  settings,
		clock:     clockwork.NewRealClock(),
		newID:     uuid.NewString,
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckReadiness returns nil once a cycle has completed.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("monitor has not completed a cycle yet")
	}
	return nil
}

// acquisition holds what the concurrent fetch produced.
type acquisition struct {
	weather    *domain.WeatherReading
	weatherErr error
	quakes     []domain.EarthquakeReading
	quakeErr   error
}

// pending is a notification and the state writes that must follow its
// successful delivery.
type pending struct {
	notification domain.Notification
	commit       func(ctx context.Context)
}

// RunCycle runs one monitoring cycle. Cycles are serialized. force bypasses
// the cadence gate and forces a status report.
//
// Acquisition and state failures degrade the cycle rather than abort it.
// The returned error reports notifications that could not be delivered; the
// state behind them is left untouched so the next cycle retries.
func (m *Monitor) RunCycle(ctx context.Context, force bool) (CycleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.settings.Policy
	loc := p.Location
	if loc == nil {
		loc = domain.PHT
	}
	start := m.clock.Now()
	now := start.In(loc)
	result := CycleResult{Forced: force}

	threatFlag, err := m.store.LoadThreatFlag(ctx)
	if err != nil {
		m.stateError("load", "threat_flag", err)
		threatFlag = false
	}

	if domain.ShouldSkipCycle(now, force, threatFlag, p) {
		m.logger.Info("cycle skipped", "hour", now.Hour(), "threat_flag", threatFlag)
		m.metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		m.ready.Store(true)
		result.Skipped = true
		return result, nil
	}

	acq := m.acquire(ctx)
	if ctx.Err() != nil {
		m.metrics.CyclesTotal.WithLabelValues("failed").Inc()
		return result, ctx.Err()
	}

	var queue []pending
	elevated := threatFlag

	switch {
	case acq.weatherErr != nil:
		result.WeatherErr = acq.weatherErr
		m.logger.Error("weather acquisition failed, skipping typhoon evaluation", "error", acq.weatherErr)
		queue = append(queue, pending{notification: m.notification(domain.KindError, now, func(n *domain.Notification) {
			n.Error = fmt.Sprintf("weather acquisition failed: %v", acq.weatherErr)
		})})

	case acq.weather == nil:
		m.logger.Info("no active tropical cyclone")
		elevated = false
		m.saveThreatFlag(ctx, false, now)
		m.metrics.InstallationsThreatened.Set(0)

	case !acq.weather.HasPosition():
		result.WeatherErr = fmt.Errorf("bulletin for %q has no position", acq.weather.SystemName)
		m.logger.Warn("bulletin without position, skipping typhoon evaluation",
			"system", acq.weather.SystemName, "bulletin_time", acq.weather.BulletinTime)
		queue = append(queue, pending{notification: m.notification(domain.KindError, now, func(n *domain.Notification) {
			n.Error = result.WeatherErr.Error()
		})})

	default:
		snap := domain.NewSnapshot(*acq.weather, m.settings.Installations, m.settings.Resolver, p)
		elevated = domain.ElevatedThreat(snap, p)
		result.ActiveSystem = true
		result.Snapshot = &snap
		m.saveThreatFlag(ctx, elevated, now)
		m.metrics.InstallationsThreatened.Set(float64(snap.ThreatenedCount()))

		if item, ok := m.evaluateAlert(ctx, snap, now); ok {
			queue = append(queue, item)
		}
	}
	result.ElevatedThreat = elevated
	if elevated {
		m.metrics.ElevatedThreat.Set(1)
	} else {
		m.metrics.ElevatedThreat.Set(0)
	}

	if item, ok := m.evaluateStatus(ctx, result, now, force); ok {
		queue = append(queue, item)
	}
	if item, ok := m.evaluateEarthquake(ctx, acq, now); ok {
		queue = append(queue, item)
	}

	err = m.deliver(ctx, queue, &result)

	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	m.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	m.metrics.CycleDuration.Observe(m.clock.Since(start).Seconds())
	m.metrics.LastCycleTime.Set(float64(m.clock.Now().Unix()))
	m.ready.Store(true)

	m.logger.Info("cycle complete",
		"forced", force,
		"active_system", result.ActiveSystem,
		"elevated_threat", result.ElevatedThreat,
		"alerted", result.Alerted,
		"status_sent", result.StatusSent,
		"earthquake_alerted", result.EarthquakeAlerted,
		"published", len(result.Published),
	)
	return result, err
}

// acquire fetches weather and earthquake readings concurrently. Each source
// fails on its own; one failure never cancels the other.
func (m *Monitor) acquire(ctx context.Context) acquisition {
	var acq acquisition
	var g errgroup.Group

	g.Go(func() error {
		fctx, cancel := m.fetchContext(ctx)
		defer cancel()
		acq.weather, acq.weatherErr = m.weather.FetchWeather(fctx)
		return nil
	})
	if m.quakes != nil {
		g.Go(func() error {
			fctx, cancel := m.fetchContext(ctx)
			defer cancel()
			acq.quakes, acq.quakeErr = m.quakes.FetchEarthquakes(fctx)
			return nil
		})
	}
	_ = g.Wait()
	return acq
}

func (m *Monitor) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.settings.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.settings.FetchTimeout)
}

func (m *Monitor) evaluateAlert(ctx context.Context, snap domain.BulletinSnapshot, now time.Time) (pending, bool) {
	cached, err := m.store.LoadSnapshot(ctx)
	if err != nil {
		m.stateError("load", "snapshot", err)
		cached = nil
	}
	if !domain.ShouldNotify(snap, cached, m.settings.Policy) {
		m.logger.Info("no significant change since last alert",
			"system", snap.SystemName, "bulletin_time", snap.BulletinTime)
		return pending{}, false
	}

	n := m.notification(domain.KindAlert, now, func(n *domain.Notification) {
		n.Snapshot = &snap
		n.Ranking = domain.RankInstallations(snap.Installations)
	})
	return pending{
		notification: n,
		commit: func(ctx context.Context) {
			if err := m.store.SaveSnapshot(ctx, snap); err != nil {
				m.stateError("save", "snapshot", err)
			}
			entry := domain.ArchiveEntry{ArchivedAt: now, Snapshot: snap}
			if err := m.store.AppendArchive(ctx, entry, m.settings.Policy.ArchiveLimit); err != nil {
				m.stateError("save", "archive", err)
			}
		},
	}, true
}

func (m *Monitor) evaluateStatus(ctx context.Context, result CycleResult, now time.Time, force bool) (pending, bool) {
	mark, err := m.store.LoadStatusMark(ctx)
	if err != nil {
		m.stateError("load", "status_mark", err)
		mark = nil
	}
	if !force && !domain.ShouldSendStatusUpdate(now, mark, m.settings.Policy) {
		return pending{}, false
	}

	n := m.notification(domain.KindStatus, now, func(n *domain.Notification) {
		report := &domain.StatusReport{
			ElevatedThreat: result.ElevatedThreat,
			Forced:         force,
			PreviousReport: mark,
		}
		if result.Snapshot != nil {
			report.ActiveSystem = result.Snapshot.SystemName
			n.Snapshot = result.Snapshot
		}
		n.Status = report
	})
	return pending{
		notification: n,
		commit: func(ctx context.Context) {
			if err := m.store.SaveStatusMark(ctx, now); err != nil {
				m.stateError("save", "status_mark", err)
			}
		},
	}, true
}

func (m *Monitor) evaluateEarthquake(ctx context.Context, acq acquisition, now time.Time) (pending, bool) {
	if m.quakes == nil {
		return pending{}, false
	}
	if acq.quakeErr != nil {
		m.logger.Warn("earthquake acquisition failed", "error", acq.quakeErr)
		return pending{}, false
	}

	latest := domain.LatestSignificant(acq.quakes, m.settings.Policy)
	if latest == nil {
		return pending{}, false
	}
	cached, err := m.store.LoadEarthquakeCache(ctx)
	if err != nil {
		m.stateError("load", "earthquake", err)
		cached = nil
	}
	if !domain.ShouldNotifyEarthquake(*latest, cached, m.settings.Policy) {
		m.logger.Debug("earthquake already notified", "location", latest.Location, "magnitude", latest.Magnitude)
		return pending{}, false
	}

	event := *latest
	return pending{
		notification: m.notification(domain.KindEarthquake, now, func(n *domain.Notification) {
			n.Earthquake = &event
		}),
		commit: func(ctx context.Context) {
			if err := m.store.SaveEarthquakeCache(ctx, event); err != nil {
				m.stateError("save", "earthquake", err)
			}
		},
	}, true
}

// commitTimeout bounds the state writes that follow a delivery. They run
// even if the cycle context ends, so a delivered notification is recorded.
const commitTimeout = 10 * time.Second

// deliver publishes each notification and commits its state only after a
// successful delivery.
func (m *Monitor) deliver(ctx context.Context, queue []pending, result *CycleResult) error {
	var errs []error
	for _, item := range queue {
		n := item.notification
		kind := string(n.Kind)
		if err := m.publisher.Publish(ctx, n); err != nil {
			m.metrics.PublishErrors.WithLabelValues(kind).Inc()
			m.logger.Error("publish failed", "kind", kind, "id", n.ID, "error", err)
			errs = append(errs, fmt.Errorf("publish %s: %w", kind, err))
			continue
		}
		m.metrics.NotificationsPublished.WithLabelValues(kind).Inc()
		result.Published = append(result.Published, n)

		switch n.Kind {
		case domain.KindAlert:
			result.Alerted = true
		case domain.KindStatus:
			result.StatusSent = true
		case domain.KindEarthquake:
			result.EarthquakeAlerted = true
		}
		if item.commit != nil {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
			item.commit(cctx)
			cancel()
		}
	}
	return errors.Join(errs...)
}

func (m *Monitor) notification(kind domain.NotificationKind, now time.Time, fill func(*domain.Notification)) domain.Notification {
	n := domain.Notification{
		ID:       m.newID(),
		Kind:     kind,
		IssuedAt: now,
	}
	if fill != nil {
		fill(&n)
	}
	return n
}

func (m *Monitor) saveThreatFlag(ctx context.Context, elevated bool, now time.Time) {
	if err := m.store.SaveThreatFlag(ctx, elevated, now); err != nil {
		m.stateError("save", "threat_flag", err)
	}
}

func (m *Monitor) stateError(op, slot string, err error) {
	m.metrics.StateErrors.WithLabelValues(op).Inc()
	m.logger.Warn("state "+op+" failed", "slot", slot, "error", err)
}
