// Package postgres provides a Postgres-backed cache store for
// deployments that share state across machines.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists cache entries in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the DSN and ensures the cache table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	store := &Store{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS desk_cache (
			chain_id BIGINT NOT NULL,
			purpose TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (chain_id, purpose)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate cache table: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Get(ctx context.Context, chainID uint64, purpose string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM desk_cache WHERE chain_id = $1 AND purpose = $2`,
		int64(chainID), purpose,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cache entry: %w", err)
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, chainID uint64, purpose, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO desk_cache (chain_id, purpose, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chain_id, purpose)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, int64(chainID), purpose, value)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, chainID uint64, purpose string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM desk_cache WHERE chain_id = $1 AND purpose = $2`,
		int64(chainID), purpose,
	)
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}
