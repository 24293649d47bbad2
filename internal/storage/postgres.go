package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &PostgresStore{sqlStore{
		db:        db,
		logger:    logger,
		txOptions: &sql.TxOptions{Isolation: sql.LevelRepeatableRead},
	}}, nil
}

// Migrate creates the database schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS verified_addresses (
		id UUID PRIMARY KEY,
		chain_id BIGINT NOT NULL,
		address TEXT NOT NULL,
		owner_email TEXT NOT NULL,
		token_name TEXT,
		token_symbol TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (chain_id, address)
	);

	CREATE INDEX IF NOT EXISTS idx_verified_addresses_owner
		ON verified_addresses(owner_email, chain_id);

	CREATE TABLE IF NOT EXISTS token_infos (
		id UUID PRIMARY KEY,
		chain_id BIGINT NOT NULL,
		address TEXT NOT NULL,
		is_user_submitted BOOLEAN NOT NULL DEFAULT FALSE,
		project_name TEXT,
		project_website TEXT NOT NULL,
		project_email TEXT NOT NULL,
		icon_url TEXT NOT NULL,
		project_description TEXT NOT NULL,
		project_sector TEXT,
		docs TEXT,
		github TEXT,
		telegram TEXT,
		linkedin TEXT,
		discord TEXT,
		slack TEXT,
		twitter TEXT,
		open_sea TEXT,
		facebook TEXT,
		medium TEXT,
		reddit TEXT,
		support TEXT,
		coin_market_cap_ticker TEXT,
		coin_gecko_ticker TEXT,
		defi_llama_ticker TEXT,
		token_name TEXT,
		token_symbol TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (chain_id, address)
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY,
		key_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_used_at TIMESTAMPTZ,
		revoked_at TIMESTAMPTZ
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	s.logger.Info("database migrated", "type", "postgres")
	return nil
}
