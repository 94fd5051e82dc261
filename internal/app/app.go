// Package app wires configuration into running components: the ingest
// runners, the refresh engine, the search API and the scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/plugin-index/internal/sync/coordinator"
)

// ServerApp runs the read API and, optionally, the ingest scheduler
type ServerApp struct {
	components  *Components
	coordinator coordinator.Coordinator
	httpServer  *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the scheduler in the background and serves HTTP. It blocks
// until the server stops or fails.
func (app *ServerApp) Start() error {
	if app.coordinator != nil {
		go func() {
			if err := app.coordinator.Start(app.ctx); err != nil {
				slog.Error("Scheduler failed", "error", err)
			}
		}()
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop stops the scheduler, then shuts the HTTP server down within timeout
func (app *ServerApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if app.coordinator != nil {
		if err := app.coordinator.Stop(); err != nil {
			slog.Error("Failed to stop scheduler", "error", err)
		}
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Components returns the components the server was built from
func (app *ServerApp) Components() *Components {
	return app.components
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *ServerApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
