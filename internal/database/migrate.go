package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/Kimsuncheol/image-voca-admin-website/migrations"
)

// MigrationResult describes one applied or rolled back migration.
type MigrationResult struct {
	Version  int64
	Source   string
	Duration string
}

// MigrationState describes one known migration.
type MigrationState struct {
	Version   int64
	Source    string
	State     string // "pending" or "applied"
	AppliedAt time.Time
}

// Migrate applies all pending migrations from the embedded set.
func Migrate(ctx context.Context, databaseURL string) ([]MigrationResult, error) {
	var out []MigrationResult
	err := withProvider(ctx, databaseURL, migrations.FS, func(p *goose.Provider) error {
		results, err := p.Up(ctx)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		out = make([]MigrationResult, 0, len(results))
		for _, r := range results {
			out = append(out, toResult(r))
		}
		return nil
	})
	return out, err
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, databaseURL string) (MigrationResult, error) {
	var out MigrationResult
	err := withProvider(ctx, databaseURL, migrations.FS, func(p *goose.Provider) error {
		r, err := p.Down(ctx)
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		out = toResult(r)
		return nil
	})
	return out, err
}

// MigrationStatus lists every embedded migration with its state.
func MigrationStatus(ctx context.Context, databaseURL string) ([]MigrationState, error) {
	var out []MigrationState
	err := withProvider(ctx, databaseURL, migrations.FS, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			out = append(out, MigrationState{
				Version:   st.Source.Version,
				Source:    st.Source.Path,
				State:     string(st.State),
				AppliedAt: st.AppliedAt,
			})
		}
		return nil
	})
	return out, err
}

func toResult(r *goose.MigrationResult) MigrationResult {
	return MigrationResult{
		Version:  r.Source.Version,
		Source:   r.Source.Path,
		Duration: r.Duration.String(),
	}
}

// withProvider opens a short-lived database/sql connection through the pgx
// stdlib driver, since goose works on *sql.DB.
func withProvider(ctx context.Context, databaseURL string, fsys fs.FS, fn func(*goose.Provider) error) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	return fn(provider)
}
