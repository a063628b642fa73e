package db

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockID keys the advisory lock held while migrating, so replicas
// starting together apply each file once.
const migrationLockID = 727_412_001

// Migrate applies the .sql files in dir that are not yet recorded.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	return MigrateFS(ctx, pool, os.DirFS(dir))
}

// MigrateFS applies migrations from fsys in lexical file order, one
// transaction per file.
func MigrateFS(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) error {
	files, err := migrationFiles(fsys)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			slog.Warn("release migration lock failed", "err", err)
		}
	}()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return err
	}

	for _, file := range files {
		sqlBytes, err := fs.ReadFile(fsys, file)
		if err != nil {
			return err
		}
		version := strings.TrimSuffix(path.Base(file), ".sql")
		applied, err := applyMigration(ctx, conn.Conn(), version, string(sqlBytes))
		if err != nil {
			return fmt.Errorf("migration %s: %w", version, err)
		}
		if applied {
			slog.Info("migration applied", "version", version)
		}
	}
	return nil
}

func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, version, sql string) (bool, error) {
	applied := false
	err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING", version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
