// Command replay runs a recorded sequence of feed readings through the
// monitor offline and prints every notification it would have published,
// one JSON object per line. State is kept in memory unless -state-dir is set.
//
// Usage:
//
//	go run ./cmd/replay -frames testdata/kristine.json
//	go run ./cmd/replay -frames frames.json -catalog catalog.yaml -state-dir /tmp/replay
//
// A frames file is a JSON array of
//
//	{"at": "2024-10-22T08:00:00+08:00", "weather": {...} | null,
//	 "weather_error": "...", "earthquakes": [...], "force": false}
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-port-monitor/internal/catalog"
	"github.com/couchcryptid/storm-port-monitor/internal/domain"
	"github.com/couchcryptid/storm-port-monitor/internal/monitor"
	"github.com/couchcryptid/storm-port-monitor/internal/observability"
	"github.com/couchcryptid/storm-port-monitor/internal/state"
)

// frame is one recorded cycle.
type frame struct {
	At           time.Time                  `json:"at"`
	Weather      *domain.WeatherReading     `json:"weather"`
	WeatherError string                     `json:"weather_error,omitempty"`
	Earthquakes  []domain.EarthquakeReading `json:"earthquakes,omitempty"`
	Force        bool                       `json:"force,omitempty"`
}

// replaySource serves the current frame to the monitor.
type replaySource struct {
	current frame
}

func (s *replaySource) FetchWeather(context.Context) (*domain.WeatherReading, error) {
	if s.current.WeatherError != "" {
		return nil, errors.New(s.current.WeatherError)
	}
	return s.current.Weather, nil
}

func (s *replaySource) FetchEarthquakes(context.Context) ([]domain.EarthquakeReading, error) {
	return s.current.Earthquakes, nil
}

// linePublisher writes each notification as a JSON line.
type linePublisher struct {
	enc *json.Encoder
}

func (p *linePublisher) Publish(_ context.Context, ns ...domain.Notification) error {
	for _, n := range ns {
		if err := p.enc.Encode(n); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	framesPath := flag.String("frames", "", "path to a JSON array of recorded frames")
	catalogPath := flag.String("catalog", "", "installation catalog YAML (default: built-in)")
	stateDir := flag.String("state-dir", "", "persist state in this directory instead of memory")
	verbose := flag.Bool("v", false, "log cycle details to stderr")
	flag.Parse()

	if *framesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if code := run(*framesPath, *catalogPath, *stateDir, os.Stdout, logger); code != 0 {
		os.Exit(code)
	}
}

func run(framesPath, catalogPath, stateDir string, out io.Writer, logger *slog.Logger) int {
	frames, err := loadFrames(framesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := context.Background()
	opts := state.Options{Kind: state.KindMemory}
	if stateDir != "" {
		opts = state.Options{Kind: state.KindFile, Dir: stateDir}
	}
	store, err := state.Open(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer store.Close() //nolint:errcheck // file and memory backends never fail to close

	clock := clockwork.NewFakeClockAt(frames[0].At)
	src := &replaySource{}
	m := monitor.New(src, store, &linePublisher{enc: json.NewEncoder(out)},
		monitor.Settings{
			Installations: cat.DomainInstallations(),
			Resolver:      cat.Resolver(),
			Policy:        domain.DefaultPolicy(),
		},
		logger,
		observability.NewMetricsForTesting(),
		monitor.WithClock(clock),
		monitor.WithEarthquakes(src),
	)

	for i, f := range frames {
		if f.At.Before(clock.Now()) {
			fmt.Fprintf(os.Stderr, "frame %d: time %s is before the previous frame\n", i, f.At.Format(time.RFC3339))
			return 1
		}
		clock.Advance(f.At.Sub(clock.Now()))
		src.current = f
		if _, err := m.RunCycle(ctx, f.Force); err != nil {
			fmt.Fprintf(os.Stderr, "frame %d: %v\n", i, err)
			return 1
		}
	}
	return 0
}

func loadFrames(path string) ([]frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	var frames []frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parse frames %s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("frames %s: no frames", path)
	}
	return frames, nil
}
