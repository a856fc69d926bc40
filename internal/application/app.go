// Package application wires configuration into a ready vocabulary service:
// database pool and store, spreadsheet client, pronunciation and enrichment
// providers. Both the HTTP server and the CLI start from here.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/config"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/database"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/enrich"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/sheets"
)

// App holds the long-lived collaborators of a running process.
type App struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	Store   *database.Store
	Service *core.Service
	Log     *slog.Logger
}

// New connects to the database and builds the service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	store := database.NewStore(pool, cfg.Upload.BatchSize)
	svc, err := core.NewService(ServiceConfig(cfg), Deps(cfg, store, logger))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &App{
		Config:  cfg,
		Pool:    pool,
		Store:   store,
		Service: svc,
		Log:     logger,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.Pool.Close()
}

// ServiceConfig maps configuration onto core.ServiceConfig.
func ServiceConfig(cfg *config.Config) core.ServiceConfig {
	return core.ServiceConfig{
		UploadTimeout: cfg.Upload.Timeout,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		ResultTTL:     cfg.Upload.ResultTTL,
		PreviewRows:   cfg.Upload.PreviewRows,
		PreviewErrors: cfg.Upload.PreviewErrors,
		Parse:         ParseOptions(cfg.Ingest),
	}
}

// ParseOptions maps ingest settings onto parser options.
func ParseOptions(cfg config.IngestConfig) core.Options {
	return core.Options{
		HeaderThreshold: cfg.HeaderThreshold,
		SampleSize:      cfg.SampleSize,
		StrictQuotes:    cfg.StrictQuotes,
	}
}

// Deps builds the service collaborators enabled by cfg around store.
func Deps(cfg *config.Config, store core.Store, logger *slog.Logger) core.Deps {
	if logger == nil {
		logger = slog.Default()
	}
	deps := core.Deps{Store: store, Logger: logger}

	if cfg.Sheets.Enabled {
		deps.Sheets = SheetsClient(cfg, logger)
	}
	if cfg.Dictionary.Enabled {
		deps.Pronouncer = enrich.NewDictionaryClient(cfg.Dictionary.BaseURL, cfg.Dictionary.Timeout, cfg.Dictionary.Concurrency, logger)
	}
	if g := enrich.NewOpenAIEnricher(cfg.Enrich, logger); g.Enabled() {
		deps.Enricher = g
	} else {
		logger.Info("enrichment disabled: no OpenAI API key")
	}
	return deps
}

// SheetsClient creates the spreadsheet client from cfg.
func SheetsClient(cfg *config.Config, logger *slog.Logger) *sheets.Client {
	return sheets.NewClient(cfg.Sheets.Timeout, logger, sheets.WithAPIBase(cfg.Sheets.APIBaseURL))
}
