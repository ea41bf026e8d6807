package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Run serves the editor until ctx is cancelled, then shuts the servers down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	a.logger.Debug("App.Run method started.")

	ln, err := net.Listen("tcp", a.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.ListenAddr, err)
	}

	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 Chatflow editor listening", "address", ln.Addr().String())
		serveErr <- a.httpServer.Serve(ln)
	}()

	a.healthCheckServer()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested.")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("editor server failed: %w", err)
		}
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	a.logger.Debug("App.Run method finished.")
	return runErr
}

func (a *App) shutdown() error {
	a.canvas.Close()

	ctx, cancel := context.WithTimeout(a.ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Editor server shutdown failed", "error", err)
		errs = append(errs, err)
	}
	if err := a.closeHealthCheckServer(); err != nil {
		errs = append(errs, err)
	}
	a.logger.Info("🏁 Chatflow editor stopped.")
	return errors.Join(errs...)
}
