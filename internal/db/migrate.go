package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// migrationLockKey is the pg advisory lock held while migrating.
const migrationLockKey = 7462839

// Migrate applies every NNN_description.sql file in fsys that has not been applied yet,
// in filename order, each in its own transaction. An applied file whose checksum has
// changed is an error.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, logger zerolog.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection for migration lock: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockKey).Scan(&locked); err != nil {
		return fmt.Errorf("query advisory lock: %w", err)
	}
	if !locked {
		return errors.New("another migrator is currently running")
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	files, err := discoverMigrations(fsys)
	if err != nil {
		return err
	}

	for _, filename := range files {
		applied, err := applyMigration(ctx, conn.Conn(), fsys, filename)
		if err != nil {
			return err
		}
		if applied {
			logger.Info().Str("file", filename).Msg("migration applied")
		} else {
			logger.Debug().Str("file", filename).Msg("migration already applied")
		}
	}
	return nil
}

func discoverMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var filenames []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := extractVersion(entry.Name())
		if err != nil {
			return nil, err
		}
		if seen[version] {
			return nil, fmt.Errorf("duplicate migration version %s", version)
		}
		seen[version] = true
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames, nil
}

func extractVersion(filename string) (string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid migration filename %s, expected NNN_description.sql", filename)
	}
	return parts[0], nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, fsys fs.FS, filename string) (bool, error) {
	version, err := extractVersion(filename)
	if err != nil {
		return false, err
	}
	sqlBytes, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", filename, err)
	}
	sum := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(sum[:])

	var existing string
	err = conn.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", version).Scan(&existing)
	switch {
	case err == nil:
		if existing != checksum {
			return false, fmt.Errorf("checksum mismatch for %s: recorded %s, file %s", filename, existing, checksum)
		}
		return false, nil
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return false, fmt.Errorf("query schema_migrations for %s: %w", filename, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction for %s: %w", filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return false, fmt.Errorf("execute migration %s: %w", filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		version, filename, checksum,
	); err != nil {
		return false, fmt.Errorf("record migration %s: %w", filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", filename, err)
	}
	return true, nil
}
