package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
)

// DefaultMigrationsDir is where the state store schema lives, relative to the working directory
const DefaultMigrationsDir = "migrations"

// RunMigrations applies every *.up.sql file in dir in name order, one
// transaction per file. The files are idempotent, so rerunning is safe.
func RunMigrations(ctx context.Context, db *sqlx.DB, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	if len(files) == 0 {
		abs, _ := filepath.Abs(dir)
		return fmt.Errorf("no migrations found in %s", abs)
	}
	sort.Strings(files)

	for _, path := range files {
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", path, err)
		}

		if err := apply(ctx, db, string(body)); err != nil {
			return fmt.Errorf("migration %s failed: %w", filepath.Base(path), err)
		}
	}

	return nil
}

func apply(ctx context.Context, db *sqlx.DB, stmt string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}

	return tx.Commit()
}
