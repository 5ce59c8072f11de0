package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/api-sage/ledger-engine/src/internal/logger"
)

// migrationLockKey serializes schema changes when several ledger instances start at once.
const migrationLockKey int64 = 0x6c6564676572

type schemaMigration struct {
	Version string
	Path    string
}

// RunMigrations brings the ledger schema up to date. Scripts in migrationsDir run in
// lexical order, each in its own transaction, and are recorded in schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB, migrationsDir string) (err error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire ledger schema connection: %w", err)
	}
	defer func() {
		err = errors.Join(err, conn.Close())
	}()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("lock ledger schema: %w", err)
	}
	defer func() {
		if _, unlockErr := conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockKey); unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("unlock ledger schema: %w", unlockErr))
		}
	}()

	const ddl = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("prepare schema_migrations: %w", err)
	}

	files, err := listMigrationFiles(migrationsDir)
	if err != nil {
		return err
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	pending := pendingMigrations(migrationsDir, files, applied)
	logger.Info("ledger schema status", logger.Fields{
		"applied": len(applied),
		"pending": len(pending),
	})

	for _, migration := range pending {
		if err := applyMigration(ctx, conn, migration); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, conn *sql.Conn, migration schemaMigration) (err error) {
	script, err := os.ReadFile(migration.Path)
	if err != nil {
		return fmt.Errorf("read ledger migration %s: %w", migration.Version, err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger migration %s: %w", migration.Version, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		logger.Error("ledger migration failed", err, logger.Fields{
			"version": migration.Version,
		})
		return fmt.Errorf("apply ledger migration %s: %w", migration.Version, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, migration.Version); err != nil {
		return fmt.Errorf("record ledger migration %s: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger migration %s: %w", migration.Version, err)
	}

	logger.Info("ledger migration applied", logger.Fields{
		"version": migration.Version,
	})
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[string]struct{}, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied ledger migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied ledger migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

// listMigrationFiles returns the *.sql file names in dir, case-insensitively, sorted.
func listMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read ledger migrations in %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

func pendingMigrations(dir string, files []string, applied map[string]struct{}) []schemaMigration {
	var pending []schemaMigration
	for _, file := range files {
		if _, ok := applied[file]; ok {
			continue
		}
		pending = append(pending, schemaMigration{Version: file, Path: filepath.Join(dir, file)})
	}
	return pending
}
