package core

// scheduler.go runs background maintenance for the upload history.
//
// Every upload keeps a copy of its source content. The retention job drops
// history entries older than the configured age so the backups do not grow
// without bound. Individual purge failures are logged and retried on the
// next tick.

import (
	"context"
	"time"
)

// RetentionConfig holds configuration for the history retention scheduler.
type RetentionConfig struct {
	MaxAge        time.Duration // Keep history this long (default: 90 days)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = 90 * 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler purges old upload history immediately and then
// every CheckInterval, until ctx is cancelled. It blocks; run it in a
// goroutine.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	s.log.Info("retention scheduler started",
		"max_age", cfg.MaxAge,
		"interval", cfg.CheckInterval,
	)

	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

// PurgeHistory deletes upload history created before now minus maxAge.
func (s *Service) PurgeHistory(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.store.PurgeUploads(ctx, time.Now().Add(-maxAge))
}

func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	purged, err := s.PurgeHistory(ctx, cfg.MaxAge)
	if err != nil {
		s.log.Error("purge upload history failed", "error", err)
		return
	}
	s.log.Info("purged upload history",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
