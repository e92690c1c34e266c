package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/extreg/internal/ctxlog"
)

type healthResponse struct {
	Status      string `json:"status"`
	Version     uint64 `json:"version,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Resources   int    `json:"resources"`
	LastError   string `json:"last_error,omitempty"`
}

// Handler returns the HTTP endpoints: /health, /graph and /graph.dot.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /graph", a.graphHandler)
	mux.HandleFunc("GET /graph.dot", a.dotHandler)
	return mux
}

// healthHandler always answers 200; "degraded" means the latest pass failed
// and an older graph is being served.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	resp := healthResponse{Status: "ok"}
	if g := a.Current(); g != nil {
		resp.Version = g.Version()
		resp.Fingerprint = g.Fingerprint()
		resp.Resources = g.Len()
	} else {
		resp.Status = "empty"
	}
	if err := a.LastError(); err != nil {
		resp.Status = "degraded"
		resp.LastError = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) graphHandler(w http.ResponseWriter, _ *http.Request) {
	g := a.Current()
	if g == nil {
		http.Error(w, "no graph has been resolved yet", http.StatusServiceUnavailable)
		return
	}
	raw, err := json.Marshal(g)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (a *App) dotHandler(w http.ResponseWriter, _ *http.Request) {
	g := a.Current()
	if g == nil {
		http.Error(w, "no graph has been resolved yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = fmt.Fprint(w, g.DOT())
}

// startHTTPServer runs the HTTP server in the background. A port of 0
// disables it.
func (a *App) startHTTPServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.HealthcheckPort))
	if err != nil {
		return fmt.Errorf("health check server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost:%d/health", a.config.HealthcheckPort))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeHTTPServer() error {
	if a.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	return nil
}
