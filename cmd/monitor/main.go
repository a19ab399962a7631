// Command monitor runs the storm port monitor as a long-lived service: one
// cycle at startup, then one at the top of every hour, plus an HTTP server
// for health, metrics and manual runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/storm-port-monitor/internal/adapter/http"
	"github.com/couchcryptid/storm-port-monitor/internal/app"
	"github.com/couchcryptid/storm-port-monitor/internal/config"
	"github.com/couchcryptid/storm-port-monitor/internal/monitor"
	"github.com/couchcryptid/storm-port-monitor/internal/observability"
)

func main() {
	force := flag.Bool("force", false, "force the startup cycle and its status report")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build monitor", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.Monitor, a.Monitor, logger)
	scheduler := monitor.NewScheduler(a.Monitor, clockwork.NewRealClock(), logger, *force || cfg.ForceFullCycle)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start hourly scheduler.
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeAfter(shutdownCtx, schedulerDone, a.Close); err != nil {
		logger.Error("close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// closeAfter waits for done, so an in-flight cycle can commit its state,
// then calls closeFn. If ctx ends first it closes anyway.
func closeAfter(ctx context.Context, done <-chan struct{}, closeFn func() error) error {
	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = fmt.Errorf("scheduler still running at shutdown: %w", ctx.Err())
	}
	return errors.Join(waitErr, closeFn())
}
