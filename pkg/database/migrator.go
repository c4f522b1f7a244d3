package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/OldStager01/pool-occupancy/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// Migrator applies the embedded migrations in file name order. Each file runs once,
// in its own transaction, and is recorded in schema_migrations.
type Migrator struct {
	db *DB
	fs fs.FS
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db, fs: migrationsFS}
}

// Run applies pending migrations and returns how many were applied.
func (m *Migrator) Run(ctx context.Context) (int, error) {
	if _, err := m.db.ExecContext(ctx, migrationsTable); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := Migrations(m.fs)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration files: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, file := range files {
		if applied[file] {
			continue
		}
		if err := m.apply(ctx, file); err != nil {
			return count, fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
		count++
	}
	return count, nil
}

// Migrations lists the .sql files under migrations/ in fsys, sorted by name.
func Migrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, filename string) error {
	content, err := fs.ReadFile(m.fs, "migrations/"+filename)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	logger.Infof("Executing migration: %s", filename)

	return WithTransaction(ctx, m.db.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute SQL: %w", err)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, filename)
		return err
	})
}
