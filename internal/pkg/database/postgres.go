package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// NewPostgresDB opens a pooled PostgreSQL connection and pings it
func NewPostgresDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// WaitForDB retries NewPostgresDB until it succeeds, attempts run out or ctx ends
func WaitForDB(ctx context.Context, cfg *config.Config, attempts int, delay time.Duration, log *logger.Logger) (*sqlx.DB, error) {
	var lastErr error

	for i := 1; i <= attempts; i++ {
		db, err := NewPostgresDB(ctx, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err

		if i == attempts {
			break
		}
		log.Warnf("PostgreSQL not ready (attempt %d/%d): %v", i, attempts, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("database unavailable after %d attempts: %w", attempts, lastErr)
}
