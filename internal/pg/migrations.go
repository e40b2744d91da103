package pg

import (
	"context"
	"fmt"

	"github.com/GlebRadaev/loyalty/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// LatestVersion is the version of the newest embedded migration.
func LatestVersion() (int64, error) {
	goose.SetBaseFS(migrations.Migrations)
	collected, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to collect migrations: %w", err)
	}
	last, err := collected.Last()
	if err != nil {
		return 0, fmt.Errorf("no migrations embedded: %w", err)
	}
	return last.Version, nil
}

// RunMigrations brings the schema up to date and returns the version the
// database ends on. A database left behind the embedded migrations is an error.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	latest, err := LatestVersion()
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		db.Close()
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if err := db.Close(); err != nil {
		return 0, fmt.Errorf("failed to close db: %w", err)
	}
	if version < latest {
		return version, fmt.Errorf("schema at version %d, expected %d", version, latest)
	}
	return version, nil
}
