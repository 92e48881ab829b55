package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
)

// Run phases reported by /health.
const (
	phaseIdle      = "idle"
	phasePreparing = "preparing"
	phaseRunning   = "running"
	phaseWriting   = "writing"
	phaseDone      = "done"
)

func (a *App) setPhase(phase string) {
	a.phase.Store(phase)
}

// Phase returns the current run phase, e.g. "running".
func (a *App) Phase() string {
	if p, ok := a.phase.Load().(string); ok {
		return p
	}
	return phaseIdle
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(a.ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "phase": a.Phase()})
}

// opsMux routes /health and /metrics.
func (a *App) opsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.Handle("GET /metrics", a.metrics.Handler())
	return mux
}

// startOpsServer serves /health and /metrics on the configured port until
// the returned stop function is called. Port 0 disables it; a port that
// cannot be bound is logged and the run continues without it.
func (a *App) startOpsServer(ctx context.Context) (stop func()) {
	logger := ctxlog.FromContext(ctx)
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Ops server disabled.")
		return func() {}
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.HealthcheckPort))
	if err != nil {
		logger.Warn("Ops server not started.", "port", a.config.HealthcheckPort, "error", err)
		return func() {}
	}

	srv := &http.Server{
		Handler:           a.opsMux(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server stopped unexpectedly.", "error", err)
		}
	}()
	logger.Info("🩺 Serving health and metrics.", "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Ops server shutdown failed.", "error", err)
		}
		<-served
		logger.Debug("Ops server shut down.")
	}
}
