// Package app owns the HTTP server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"book-chat/internal/logging"
)

// Config captures server configuration.
type Config struct {
	HTTPPort int
}

// App runs the HTTP API until its context is cancelled.
type App struct {
	cfg     Config
	logger  logging.Logger
	handler http.Handler
}

// New creates a new App serving handler.
func New(cfg Config, logger logging.Logger, handler http.Handler) (*App, error) {
	if cfg.HTTPPort == 0 {
		return nil, errors.New("http port must be provided")
	}
	return &App{cfg: cfg, logger: logger, handler: handler}, nil
}

// Run starts the server and blocks until the context is cancelled or a fatal
// error occurs, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.With(logging.Field{Key: "addr", Value: addr}).Info("starting HTTP server")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
