package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// MigrationsTable records which files under the migrations directory have run.
const MigrationsTable = "community_schema_migrations"

// RunMigrations applies the pending SQL files in dir in lexical order, one
// transaction per file, and records each in MigrationsTable. A file that sorts
// before the newest applied one but was never applied is refused, since it was
// written against an older schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, dir string, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS `+MigrationsTable+` (
            version    TEXT PRIMARY KEY,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return fmt.Errorf("create %s: %w", MigrationsTable, err)
	}

	rows, err := pool.Query(ctx, `SELECT version FROM `+MigrationsTable)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	pending, err := pendingMigrations(files, versions)
	if err != nil {
		return err
	}

	for _, name := range pending {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("file", name))
		if err := applyMigration(ctx, pool, name, string(content)); err != nil {
			return err
		}
	}

	logger.Info("migrations applied",
		zap.Int("applied", len(pending)),
		zap.Int("already_current", len(files)-len(pending)))
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, name, sql string) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Concurrent starters queue here; the loser then fails on the primary key.
	if _, err := tx.Exec(ctx, `LOCK TABLE `+MigrationsTable+` IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock %s: %w", MigrationsTable, err)
	}
	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO `+MigrationsTable+` (version) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit(ctx)
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)
	return filenames, nil
}

// pendingMigrations returns the files not yet in applied, keeping their order.
func pendingMigrations(files, applied []string) ([]string, error) {
	done := make(map[string]bool, len(applied))
	newest := ""
	for _, version := range applied {
		done[version] = true
		if version > newest {
			newest = version
		}
	}

	var pending, outOfOrder []string
	for _, name := range files {
		if done[name] {
			continue
		}
		if name < newest {
			outOfOrder = append(outOfOrder, name)
			continue
		}
		pending = append(pending, name)
	}
	if len(outOfOrder) > 0 {
		return nil, fmt.Errorf("migrations %s sort before applied %s", strings.Join(outOfOrder, ", "), newest)
	}
	return pending, nil
}
