package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// Migrations contains all database migrations
var Migrations = []Migration{
	{
		Version: 2,
		Up: `
			CREATE INDEX IF NOT EXISTS idx_moderation_logs_created_at ON moderation_logs(created_at);
			CREATE INDEX IF NOT EXISTS idx_moderation_logs_status ON moderation_logs(status);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_moderation_logs_status;
			DROP INDEX IF EXISTS idx_moderation_logs_created_at;
		`,
	},
	{
		Version: 1,
		Up: `
			CREATE TABLE IF NOT EXISTS moderation_logs (
				id BIGSERIAL PRIMARY KEY,
				content_type TEXT NOT NULL CHECK (content_type IN ('text', 'image')),
				status TEXT NOT NULL CHECK (
					(content_type = 'text' AND status IN ('Safe Text', 'Toxic Text')) OR
					(content_type = 'image' AND status IN ('Safe Image', 'NSFW Image'))
				),
				confidence DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
				created_at TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'utc')
			);
		`,
		Down: `
			DROP TABLE IF EXISTS moderation_logs;
		`,
	},
}

// AppliedMigration is one row of schema_migrations
type AppliedMigration struct {
	Version   int
	AppliedAt time.Time
}

func sortedMigrations() []Migration {
	sorted := make([]Migration, len(Migrations))
	copy(sorted, Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}

// RunMigrations runs all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	currentVersion, err := getCurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range sortedMigrations() {
		if migration.Version <= currentVersion {
			continue
		}

		logger.Info("running migration", zap.Int("version", migration.Version))

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// RollbackLast reverts the most recently applied migration.
// It returns the reverted version, or 0 when nothing was applied.
func RollbackLast(ctx context.Context, db *sql.DB, logger *zap.Logger) (int, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return 0, err
	}

	currentVersion, err := getCurrentVersion(ctx, db)
	if err != nil {
		return 0, err
	}
	if currentVersion == 0 {
		return 0, nil
	}

	var target *Migration
	for _, m := range Migrations {
		if m.Version == currentVersion {
			m := m
			target = &m
			break
		}
	}
	if target == nil {
		return 0, fmt.Errorf("no migration with version %d", currentVersion)
	}

	logger.Info("rolling back migration", zap.Int("version", target.Version))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, target.Down); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to roll back migration %d: %w", target.Version, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", target.Version); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to unrecord migration %d: %w", target.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rollback %d: %w", target.Version, err)
	}

	return target.Version, nil
}

// Status lists applied migrations in version order
func Status(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		if err := rows.Scan(&m.Version, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func getCurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}
