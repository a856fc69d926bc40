package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/application"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/config"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/database"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/logging"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/web"
)

func main() {
	// Load and validate configuration (reads .env when present)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	applied, err := database.Migrate(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	for _, m := range applied {
		logger.Info("migration applied", "version", m.Version, "source", m.Source, "duration", m.Duration)
	}

	app, err := application.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("courses registered", "count", core.CourseCount())

	// Background jobs stop with the signal context.
	go app.Service.StartRetentionScheduler(ctx, core.RetentionConfig{
		MaxAge:        cfg.History.Retention(),
		CheckInterval: cfg.History.CheckInterval,
	})

	server := web.NewServer(ctx, app.Service, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Wait for active uploads to complete (with timeout)
	if status := app.Service.Limiter().Status(); status.Active > 0 {
		logger.Info("waiting for uploads to complete", "active", status.Active)
		if err := app.Service.WaitForUploads(shutdownCtx); err != nil {
			logger.Warn("uploads did not complete in time", "error", err)
		} else {
			logger.Info("all uploads completed")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
