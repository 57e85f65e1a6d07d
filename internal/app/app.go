package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/shortlink-backend/internal/config"
	"github.com/sandeepkv93/shortlink-backend/internal/health"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"
)

// BackgroundTask runs until its context is cancelled.
type BackgroundTask interface {
	Run(ctx context.Context) error
}

type App struct {
	Config          *config.Config
	Logger          *slog.Logger
	Server          *http.Server
	Observability   *observability.Runtime
	Readiness       *health.ProbeRunner
	Background      []BackgroundTask
	ShutdownTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	readiness *health.ProbeRunner,
	background ...BackgroundTask,
) *App {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &App{
		Config:          cfg,
		Logger:          logger,
		Server:          server,
		Observability:   runtime,
		Readiness:       readiness,
		Background:      background,
		ShutdownTimeout: timeout,
	}
}

// Run serves HTTP and runs background tasks until ctx is cancelled or one of
// them fails, then drains the server and flushes telemetry.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, task := range a.Background {
		task := task
		g.Go(func() error { return task.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down http server")
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	})

	runErr := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.ShutdownTimeout)
	defer cancel()
	if err := a.Observability.Shutdown(flushCtx); err != nil {
		a.Logger.Warn("observability shutdown failed", "error", err)
	}
	return runErr
}
