package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/taskgridgo/internal/executor"
)

// startStatsServer runs the HTTP server exposing liveness and executor
// statistics while a run is in flight. The returned server is shut down by
// closeStatsServer when the run ends.
func (a *App) startStatsServer(port int, exec *executor.Executor) *http.Server {
	a.logger.Debug("Configuring stats server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		a.statsHandler(w, r, exec)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		a.logger.Info("🩺 Stats server starting", "address", fmt.Sprintf("http://localhost%s/stats", srv.Addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown; only
		// other errors are worth reporting.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Stats server failed unexpectedly", "error", err)
		}
	}()
	return srv
}

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// statsHandler serves a point-in-time snapshot of pool activity.
func (a *App) statsHandler(w http.ResponseWriter, r *http.Request, exec *executor.Executor) {
	a.logger.Debug("Stats endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(exec.Stats()); err != nil {
		a.logger.Error("Failed to encode stats response", "error", err)
	}
}

func (a *App) closeStatsServer(srv *http.Server) {
	a.logger.Debug("Closing stats server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("Stats server shutdown failed", "error", err)
		return
	}
	a.logger.Debug("Stats server shut down gracefully.")
}
