package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// sqlStore holds the queries shared by the Postgres and SQLite stores. Both
// engines accept $N placeholders, so only connection setup, schema DDL and
// transaction options differ per engine.
type sqlStore struct {
	db     *sql.DB
	logger *slog.Logger
	// txOptions applies to the provenance-gated import transaction. Postgres
	// uses repeatable read so the duplicate-check-then-write pattern cannot
	// race; SQLite serializes writers on its own.
	txOptions *sql.TxOptions
}

const verifiedAddressColumns = `id, chain_id, address, owner_email, token_name, token_symbol, created_at`

func (s *sqlStore) GetVerifiedAddress(ctx context.Context, chainID int64, address string) (*VerifiedAddress, error) {
	query := `SELECT ` + verifiedAddressColumns + ` FROM verified_addresses WHERE chain_id = $1 AND address = $2`
	return scanVerifiedAddress(s.db.QueryRowContext(ctx, query, chainID, address))
}

func (s *sqlStore) CountVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verified_addresses WHERE chain_id = $1 AND owner_email = $2`,
		chainID, ownerEmail,
	).Scan(&count)
	return count, err
}

func (s *sqlStore) CreateOrGetVerifiedAddress(ctx context.Context, rec *VerifiedAddress) (*VerifiedAddress, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Insert-then-reread: the unique constraint arbitrates concurrent
	// verifiers, never an application lock.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO verified_addresses (id, chain_id, address, owner_email, token_name, token_symbol, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chain_id, address) DO NOTHING
	`, generateID(), rec.ChainID, rec.Address, rec.OwnerEmail, nullStr(rec.TokenName), nullStr(rec.TokenSymbol), time.Now().UTC().Truncate(time.Second))
	if err != nil {
		return nil, fmt.Errorf("inserting verified address: %w", err)
	}

	row, err := scanVerifiedAddress(tx.QueryRowContext(ctx,
		`SELECT `+verifiedAddressColumns+` FROM verified_addresses WHERE chain_id = $1 AND address = $2`,
		rec.ChainID, rec.Address,
	))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("verified address missing after insert")
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return row, nil
}

func (s *sqlStore) ListVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) ([]VerifiedAddress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+verifiedAddressColumns+` FROM verified_addresses WHERE chain_id = $1 AND owner_email = $2 ORDER BY created_at`,
		chainID, ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VerifiedAddress
	for rows.Next() {
		rec, err := scanVerifiedAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerifiedAddress(row rowScanner) (*VerifiedAddress, error) {
	var rec VerifiedAddress
	var tokenName, tokenSymbol sql.NullString
	err := row.Scan(&rec.ID, &rec.ChainID, &rec.Address, &rec.OwnerEmail, &tokenName, &tokenSymbol, &rec.VerifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.TokenName = strPtr(tokenName)
	rec.TokenSymbol = strPtr(tokenSymbol)
	return &rec, nil
}

const tokenInfoColumns = `id, chain_id, address, is_user_submitted,
	project_name, project_website, project_email, icon_url, project_description, project_sector,
	docs, github, telegram, linkedin, discord, slack, twitter, open_sea, facebook, medium, reddit, support,
	coin_market_cap_ticker, coin_gecko_ticker, defi_llama_ticker, token_name, token_symbol, updated_at`

func (s *sqlStore) GetTokenInfo(ctx context.Context, chainID int64, address string) (*TokenInfo, error) {
	query := `SELECT ` + tokenInfoColumns + ` FROM token_infos WHERE chain_id = $1 AND address = $2`
	return scanTokenInfo(s.db.QueryRowContext(ctx, query, chainID, address))
}

func (s *sqlStore) ListUserTokenInfos(ctx context.Context, chainID int64, ownerEmail string) ([]TokenInfo, error) {
	query := `
		SELECT ` + tokenInfoColumns + ` FROM token_infos
		WHERE chain_id = $1 AND address IN (
			SELECT address FROM verified_addresses WHERE chain_id = $1 AND owner_email = $2
		)
	`
	rows, err := s.db.QueryContext(ctx, query, chainID, ownerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TokenInfo
	for rows.Next() {
		rec, err := scanTokenInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *sqlStore) ImportTokenInfo(ctx context.Context, rec *TokenInfo, propagate func(context.Context) error) (bool, error) {
	tx, err := s.db.BeginTx(ctx, s.txOptions)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingUserSubmitted bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_user_submitted FROM token_infos WHERE chain_id = $1 AND address = $2`,
		rec.ChainID, rec.Address,
	).Scan(&existingUserSubmitted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first import always writes
	case err != nil:
		return false, err
	case existingUserSubmitted && !rec.IsUserSubmitted:
		// provenance ratchet: extractor data never clobbers a user record
		s.logger.Info("token info import skipped, user-submitted record present",
			"chain_id", rec.ChainID, "address", rec.Address)
		return false, nil
	}

	// Full-record overwrite: field-level merging across extractors happens
	// upstream, before a single import call reaches this store.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_infos (`+tokenInfoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		ON CONFLICT (chain_id, address) DO UPDATE SET
			is_user_submitted = EXCLUDED.is_user_submitted,
			project_name = EXCLUDED.project_name,
			project_website = EXCLUDED.project_website,
			project_email = EXCLUDED.project_email,
			icon_url = EXCLUDED.icon_url,
			project_description = EXCLUDED.project_description,
			project_sector = EXCLUDED.project_sector,
			docs = EXCLUDED.docs,
			github = EXCLUDED.github,
			telegram = EXCLUDED.telegram,
			linkedin = EXCLUDED.linkedin,
			discord = EXCLUDED.discord,
			slack = EXCLUDED.slack,
			twitter = EXCLUDED.twitter,
			open_sea = EXCLUDED.open_sea,
			facebook = EXCLUDED.facebook,
			medium = EXCLUDED.medium,
			reddit = EXCLUDED.reddit,
			support = EXCLUDED.support,
			coin_market_cap_ticker = EXCLUDED.coin_market_cap_ticker,
			coin_gecko_ticker = EXCLUDED.coin_gecko_ticker,
			defi_llama_ticker = EXCLUDED.defi_llama_ticker,
			token_name = EXCLUDED.token_name,
			token_symbol = EXCLUDED.token_symbol,
			updated_at = EXCLUDED.updated_at
	`,
		generateID(), rec.ChainID, rec.Address, rec.IsUserSubmitted,
		nullStr(rec.ProjectName), rec.ProjectWebsite, rec.ProjectEmail, rec.IconURL, rec.ProjectDescription, nullStr(rec.ProjectSector),
		nullStr(rec.Docs), nullStr(rec.Github), nullStr(rec.Telegram), nullStr(rec.Linkedin), nullStr(rec.Discord), nullStr(rec.Slack),
		nullStr(rec.Twitter), nullStr(rec.OpenSea), nullStr(rec.Facebook), nullStr(rec.Medium), nullStr(rec.Reddit), nullStr(rec.Support),
		nullStr(rec.CoinMarketCapTicker), nullStr(rec.CoinGeckoTicker), nullStr(rec.DefiLlamaTicker),
		nullStr(rec.TokenName), nullStr(rec.TokenSymbol), time.Now().UTC().Truncate(time.Second),
	)
	if err != nil {
		return false, fmt.Errorf("upserting token info: %w", err)
	}

	// The remote import participates in the transaction through the deferred
	// rollback: if propagation fails, the local write never becomes visible.
	if propagate != nil {
		if err := propagate(ctx); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return true, nil
}

func scanTokenInfo(row rowScanner) (*TokenInfo, error) {
	var rec TokenInfo
	var projectName, projectSector sql.NullString
	var docs, github, telegram, linkedin, discord, slack, twitter, openSea, facebook, medium, reddit, support sql.NullString
	var cmcTicker, geckoTicker, llamaTicker, tokenName, tokenSymbol sql.NullString
	err := row.Scan(
		&rec.ID, &rec.ChainID, &rec.Address, &rec.IsUserSubmitted,
		&projectName, &rec.ProjectWebsite, &rec.ProjectEmail, &rec.IconURL, &rec.ProjectDescription, &projectSector,
		&docs, &github, &telegram, &linkedin, &discord, &slack, &twitter, &openSea, &facebook, &medium, &reddit, &support,
		&cmcTicker, &geckoTicker, &llamaTicker, &tokenName, &tokenSymbol, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.ProjectName = strPtr(projectName)
	rec.ProjectSector = strPtr(projectSector)
	rec.Docs, rec.Github, rec.Telegram, rec.Linkedin = strPtr(docs), strPtr(github), strPtr(telegram), strPtr(linkedin)
	rec.Discord, rec.Slack, rec.Twitter, rec.OpenSea = strPtr(discord), strPtr(slack), strPtr(twitter), strPtr(openSea)
	rec.Facebook, rec.Medium, rec.Reddit, rec.Support = strPtr(facebook), strPtr(medium), strPtr(reddit), strPtr(support)
	rec.CoinMarketCapTicker = strPtr(cmcTicker)
	rec.CoinGeckoTicker = strPtr(geckoTicker)
	rec.DefiLlamaTicker = strPtr(llamaTicker)
	rec.TokenName = strPtr(tokenName)
	rec.TokenSymbol = strPtr(tokenSymbol)
	return &rec, nil
}

// CreateAPIKey creates a new API key and returns its plaintext form once.
func (s *sqlStore) CreateAPIKey(ctx context.Context, name string) (string, error) {
	key := generateAPIKey()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, key_hash, name, created_at) VALUES ($1, $2, $3, $4)`,
		generateID(), hashAPIKey(key), name, time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return key, nil
}

// ValidateAPIKey validates an API key and bumps its last-used timestamp.
func (s *sqlStore) ValidateAPIKey(ctx context.Context, key string) (*APIKey, error) {
	var ak APIKey
	err := s.db.QueryRowContext(ctx,
		`SELECT id, key_hash, name, created_at FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`,
		hashAPIKey(key),
	).Scan(&ak.ID, &ak.KeyHash, &ak.Name, &ak.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_, _ = s.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, time.Now().UTC(), ak.ID)
	return &ak, nil
}

// ListAPIKeys lists all active API keys.
func (s *sqlStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, last_used_at FROM api_keys WHERE revoked_at IS NULL ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.CreatedAt, &lastUsed); err != nil {
			return nil, err
		}
		k.LastUsedAt = timePtr(lastUsed)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeAPIKey revokes an API key.
func (s *sqlStore) RevokeAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE api_keys SET revoked_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	return err
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}
