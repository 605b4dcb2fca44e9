package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

// StateStore implements domain.StateStore on the storefront_state table
type StateStore struct {
	db *sqlx.DB
}

// NewStateStore creates a new PostgreSQL state store
func NewStateStore(db *sqlx.DB) *StateStore {
	return &StateStore{db: db}
}

// Get retrieves the value stored under key
func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM storefront_state WHERE key = $1`

	var value []byte
	err := s.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return value, nil
}

// Set upserts the value stored under key
func (s *StateStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO storefront_state (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, key, string(value))
	return err
}

// Delete removes key
func (s *StateStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM storefront_state WHERE key = $1`

	_, err := s.db.ExecContext(ctx, query, key)
	return err
}
