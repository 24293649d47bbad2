// Package storage persists verified ownership claims and token metadata.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tokendesk/contractsinfo/internal/config"
)

// VerifiedAddressStore handles verified-address rows. Uniqueness on
// (chain_id, address) is enforced by the database, not by callers.
type VerifiedAddressStore interface {
	GetVerifiedAddress(ctx context.Context, chainID int64, address string) (*VerifiedAddress, error)
	CountVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) (int64, error)
	// CreateOrGetVerifiedAddress inserts the row, ignores a uniqueness
	// conflict, and returns whichever row now exists. The caller decides
	// whether the returned owner is the one it expected.
	CreateOrGetVerifiedAddress(ctx context.Context, rec *VerifiedAddress) (*VerifiedAddress, error)
	ListVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) ([]VerifiedAddress, error)
}

// TokenInfoStore handles token metadata rows.
type TokenInfoStore interface {
	GetTokenInfo(ctx context.Context, chainID int64, address string) (*TokenInfo, error)
	// ListUserTokenInfos returns token infos for addresses the user has
	// verified on the given chain.
	ListUserTokenInfos(ctx context.Context, chainID int64, ownerEmail string) ([]TokenInfo, error)
	// ImportTokenInfo applies the provenance-gated upsert inside one
	// transaction: a user-submitted record is only replaced by another
	// user-submitted record. When the write is allowed, propagate is invoked
	// before commit; a propagate error rolls the local write back. Returns
	// whether a write happened (a provenance-rejected import is a no-op, not
	// an error).
	ImportTokenInfo(ctx context.Context, rec *TokenInfo, propagate func(context.Context) error) (bool, error)
}

// APIKeyStore handles API keys for the privileged endpoints.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, name string) (key string, err error)
	ValidateAPIKey(ctx context.Context, key string) (*APIKey, error)
	ListAPIKeys(ctx context.Context) ([]APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
}

// Store combines all storage interfaces with lifecycle methods.
// Domain services define their own minimal interfaces based on actual usage.
type Store interface {
	VerifiedAddressStore
	TokenInfoStore
	APIKeyStore

	Close() error
	Migrate(ctx context.Context) error
}

// VerifiedAddress is an accepted ownership claim. Addresses are stored as
// lowercase 0x hex.
type VerifiedAddress struct {
	ID          string
	ChainID     int64
	Address     string
	OwnerEmail  string
	TokenName   *string
	TokenSymbol *string
	VerifiedAt  time.Time
}

// TokenInfo is the project metadata record for one (chain, token address).
// IsUserSubmitted records provenance: true for records written by a verified
// owner through the admin path, false for automated extractors.
type TokenInfo struct {
	ID              string
	ChainID         int64
	Address         string
	IsUserSubmitted bool

	ProjectName        *string
	ProjectWebsite     string
	ProjectEmail       string
	IconURL            string
	ProjectDescription string
	ProjectSector      *string

	Docs     *string
	Github   *string
	Telegram *string
	Linkedin *string
	Discord  *string
	Slack    *string
	Twitter  *string
	OpenSea  *string
	Facebook *string
	Medium   *string
	Reddit   *string
	Support  *string

	CoinMarketCapTicker *string
	CoinGeckoTicker     *string
	DefiLlamaTicker     *string

	TokenName   *string
	TokenSymbol *string

	UpdatedAt time.Time
}

// APIKey represents an API key for the privileged endpoints.
type APIKey struct {
	ID         string
	Name       string
	KeyHash    string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
}

// New creates a new store based on configuration.
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
