package storage

import (
	"context"
	"fmt"
	"log/slog"

	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store backed by SQLite. Suitable for development and
// single-node deployments.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore creates a new SQLite-backed store at the given path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// modernc sqlite serializes writes through a single connection.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{sqlStore{db: db, logger: logger}}, nil
}

// Migrate creates the database schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS verified_addresses (
		id TEXT PRIMARY KEY,
		chain_id INTEGER NOT NULL,
		address TEXT NOT NULL,
		owner_email TEXT NOT NULL,
		token_name TEXT,
		token_symbol TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (chain_id, address)
	);

	CREATE INDEX IF NOT EXISTS idx_verified_addresses_owner
		ON verified_addresses(owner_email, chain_id);

	CREATE TABLE IF NOT EXISTS token_infos (
		id TEXT PRIMARY KEY,
		chain_id INTEGER NOT NULL,
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
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (chain_id, address)
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		key_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		last_used_at TIMESTAMP,
		revoked_at TIMESTAMP
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	s.logger.Info("database migrated", "type", "sqlite")
	return nil
}
