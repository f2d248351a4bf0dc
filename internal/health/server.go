// Package health exposes the liveness and metrics endpoints the
// deployment probes.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/2molaf/jarvfjallet/internal/store"
)

// BotStatus is a snapshot of the Discord connection, supplied by the
// adapter so this package doesn't depend on it.
type BotStatus struct {
	Ready   bool
	Guilds  int
	Latency time.Duration
}

// Server provides /health and /metrics.
type Server struct {
	store   store.Store
	status  func() BotStatus
	started time.Time
	log     *slog.Logger
}

// NewServer creates a health server. status may be nil when no bot is
// running (CLI-only invocations).
func NewServer(s store.Store, status func() BotStatus, log *slog.Logger) *Server {
	if status == nil {
		status = func() BotStatus { return BotStatus{} }
	}
	return &Server{
		store:   s,
		status:  status,
		started: time.Now(),
		log:     log,
	}
}

// Router returns the handler for the health routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /metrics", s.metrics)
	return mux
}

// Serve runs the server on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("health server started", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	bot := s.status()

	dbReady := true
	if _, err := s.store.CountGames(r.Context()); err != nil {
		dbReady = false
	}

	body := map[string]any{
		"status":         "healthy",
		"bot_ready":      bot.Ready,
		"guilds":         bot.Guilds,
		"latency_ms":     bot.Latency.Milliseconds(),
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"database_ready": dbReady,
	}
	code := http.StatusOK
	if !dbReady {
		body["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.log.Error("metrics: store stats failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "stats unavailable"})
		return
	}

	bot := s.status()
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":   int(time.Since(s.started).Seconds()),
		"bot_ready":        bot.Ready,
		"guilds":           bot.Guilds,
		"games_total":      stats.Total,
		"games_assigned":   stats.Assigned,
		"games_unassigned": stats.Unassigned,
		"games_completed":  stats.Completed,
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
