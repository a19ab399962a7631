package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-port-monitor/internal/monitor"
)

// runTimeout bounds a cycle triggered over HTTP.
const runTimeout = 2 * time.Minute

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CycleRunner runs one monitoring cycle on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context, force bool) (monitor.CycleResult, error)
}

// Server exposes health, readiness, metrics and manual-trigger endpoints.
type Server struct {
	httpServer *http.Server
	runner     CycleRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /run routes.
func NewServer(addr string, ready ReadinessChecker, runner CycleRunner, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: runTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		logger: logger,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/run", s.handleRun)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type runResponse struct {
	Skipped           bool     `json:"skipped"`
	Forced            bool     `json:"forced"`
	ActiveSystem      bool     `json:"active_system"`
	ElevatedThreat    bool     `json:"elevated_threat"`
	Alerted           bool     `json:"alerted"`
	StatusSent        bool     `json:"status_sent"`
	EarthquakeAlerted bool     `json:"earthquake_alerted"`
	Published         []string `json:"published"`
	WeatherError      string   `json:"weather_error,omitempty"`
	Error             string   `json:"error,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid force parameter"})
			return
		}
		force = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	s.logger.Info("manual cycle requested", "force", force, "remote_addr", r.RemoteAddr)
	res, err := s.runner.RunCycle(ctx, force)

	resp := runResponse{
		Skipped:           res.Skipped,
		Forced:            res.Forced,
		ActiveSystem:      res.ActiveSystem,
		ElevatedThreat:    res.ElevatedThreat,
		Alerted:           res.Alerted,
		StatusSent:        res.StatusSent,
		EarthquakeAlerted: res.EarthquakeAlerted,
		Published:         make([]string, 0, len(res.Published)),
	}
	for _, n := range res.Published {
		resp.Published = append(resp.Published, string(n.Kind))
	}
	if res.WeatherErr != nil {
		resp.WeatherError = res.WeatherErr.Error()
	}

	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
