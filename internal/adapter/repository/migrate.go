package repository

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate применяет недостающие миграции; каждая в своей транзакции
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	// 000_create_schema_migrations.sql идёт первой
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, name := range files {
		version := strings.Split(name, "_")[0]

		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists)
		if err != nil {
			// Таблицы ещё нет: допустимо только для 000
			if version != "000" {
				return fmt.Errorf("failed to check migration %s: %w", name, err)
			}
		} else if exists {
			logger.Debug("Skipping migration (already applied)", zap.String("migration", name))
			continue
		}

		sqlBytes, err := migrations.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}

		logger.Info("Applying migration",
			zap.String("migration", name),
			zap.String("version", version),
		)

		if err := applyMigration(ctx, pool, version, string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
		applied++
	}

	logger.Info("Migrations complete",
		zap.Int("total_migrations", len(files)),
		zap.Int("applied", applied),
	)
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, version, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to execute: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("failed to record: %w", err)
	}

	return tx.Commit(ctx)
}
