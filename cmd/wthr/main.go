// Command wthr serves the daily forecast form.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swelljoe/wthr-daily/internal/config"
	"github.com/swelljoe/wthr-daily/internal/dashboard"
	"github.com/swelljoe/wthr-daily/internal/db"
	"github.com/swelljoe/wthr-daily/internal/handlers"
	"github.com/swelljoe/wthr-daily/internal/weather"
)

const pruneInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("wthr starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"forecast_url", cfg.Forecast.BaseURL,
		"honor_date", cfg.Forecast.HonorDate,
	)

	// Place search is optional; the forecast form works without it.
	var database handlers.Database
	if gazetteer, err := db.NewDB(cfg.Database.Path); err != nil {
		logger.Warn("database unavailable, continuing without place search",
			"path", cfg.Database.Path, "error", err)
	} else {
		defer gazetteer.Close()
		database = gazetteer
		logger.Info("database connected", "path", cfg.Database.Path)
	}

	sessions := dashboard.NewRegistry(weather.NewClient(cfg.Forecast), cfg.Session.IdleTTL, cfg.Forecast.HonorDate, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.New(sessions, database, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A submission waits for the upstream fetch before redirecting.
		WriteTimeout: cfg.Forecast.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Event streams never finish on their own; end them when shutdown starts.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpServer.BaseContext = func(net.Listener) context.Context { return baseCtx }
	httpServer.RegisterOnShutdown(cancelBase)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gctx, pruneInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newLogger creates a JSON slog.Logger for the given level name.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
