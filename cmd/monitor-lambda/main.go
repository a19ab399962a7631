// Command monitor-lambda runs one monitoring cycle per invocation. It is
// meant to be triggered hourly by an EventBridge schedule; the cadence rules
// decide whether an invocation does any work.
//
// The schedule may pass {"force": true} as the event detail to force a full
// cycle. With APP_ENV=local the event is read from stdin instead.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/couchcryptid/storm-port-monitor/internal/app"
	"github.com/couchcryptid/storm-port-monitor/internal/config"
	"github.com/couchcryptid/storm-port-monitor/internal/monitor"
	"github.com/couchcryptid/storm-port-monitor/internal/observability"
)

// CycleReporter records the outcome of a cycle outside the process.
type CycleReporter interface {
	ReportCycle(ctx context.Context, res monitor.CycleResult, failed bool)
}

// Handler runs cycles for scheduled events.
type Handler struct {
	cycler       monitor.Cycler
	reporter     CycleReporter
	forceDefault bool
	logger       *slog.Logger
}

type eventDetail struct {
	Force bool `json:"force"`
}

// Response is returned to the Lambda runtime.
type Response struct {
	Skipped   bool     `json:"skipped"`
	Published []string `json:"published"`
}

// Handle runs one cycle. Errors are returned only when a notification could
// not be delivered, so the runtime's retry can deliver it.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) (Response, error) {
	force := h.forceDefault
	if len(event.Detail) > 0 {
		var d eventDetail
		if err := json.Unmarshal(event.Detail, &d); err != nil {
			h.logger.Warn("ignoring malformed event detail", "error", err, "event_id", event.ID)
		} else if d.Force {
			force = true
		}
	}

	res, err := h.cycler.RunCycle(ctx, force)
	if h.reporter != nil {
		h.reporter.ReportCycle(ctx, res, err != nil)
	}
	resp := Response{Skipped: res.Skipped, Published: make([]string, 0, len(res.Published))}
	for _, n := range res.Published {
		resp.Published = append(resp.Published, string(n.Kind))
	}
	if err != nil {
		return resp, fmt.Errorf("cycle: %w", err)
	}
	return resp, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	logger.Info("monitor lambda initializing (cold start)")

	a, err := app.Build(context.Background(), cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build monitor", "error", err)
		os.Exit(1)
	}

	handler := &Handler{cycler: a.Monitor, forceDefault: cfg.ForceFullCycle, logger: logger}
	reporter, err := app.NewCycleReporter(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to configure cloudwatch", "error", err)
		os.Exit(1)
	}
	if reporter != nil {
		handler.reporter = reporter
	}

	if os.Getenv("APP_ENV") == "local" {
		logger.Info("APP_ENV=local: reading event from stdin")
		defer a.Close() //nolint:errcheck // process exits next
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("failed to read stdin", "error", err)
			os.Exit(1)
		}
		var event events.CloudWatchEvent
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event); err != nil {
				logger.Error("failed to parse stdin as event", "error", err)
				os.Exit(1)
			}
		}
		resp, err := handler.Handle(context.Background(), event)
		if err != nil {
			logger.Error("handler failed", "error", err)
			os.Exit(1)
		}
		logger.Info("handler completed", "skipped", resp.Skipped, "published", resp.Published)
		return
	}

	lambda.Start(handler.Handle)
}
