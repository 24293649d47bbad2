// Package domain contains the business logic for token metadata.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokendesk/contractsinfo/internal/observability/metrics"
	"github.com/tokendesk/contractsinfo/internal/storage"
)

// ErrNotFound is returned when no token info exists.
var ErrNotFound = errors.New("not found")

// Store defines the storage operations needed by the token-info domain.
type Store interface {
	GetTokenInfo(ctx context.Context, chainID int64, address string) (*storage.TokenInfo, error)
	ListUserTokenInfos(ctx context.Context, chainID int64, ownerEmail string) ([]storage.TokenInfo, error)
	ImportTokenInfo(ctx context.Context, rec *storage.TokenInfo, propagate func(context.Context) error) (bool, error)
}

// Exporter pushes accepted token metadata to the explorer.
type Exporter interface {
	ImportTokenInfo(ctx context.Context, payload any) error
}

type service struct {
	store    Store
	explorer Exporter
	logger   *slog.Logger
}

// NewService creates a new token-info service.
func NewService(store Store, explorer Exporter, logger *slog.Logger) *service {
	return &service{store: store, explorer: explorer, logger: logger}
}

// Import applies a token metadata submission. Whether it lands depends on
// provenance: extractor data never overwrites a user-submitted record, while
// user submissions always win. An accepted record is also pushed to the
// explorer; if that push fails the local write is rolled back. Returns whether
// a write happened.
func (s *service) Import(ctx context.Context, rec *TokenInfo, level ProviderLevel) (bool, error) {
	rec.IsUserSubmitted = level.IsUserSubmitted()

	written, err := s.store.ImportTokenInfo(ctx, rec, func(ctx context.Context) error {
		if err := s.explorer.ImportTokenInfo(ctx, newImportPayload(rec)); err != nil {
			return fmt.Errorf("propagating token info to explorer: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.TokenInfoImport(string(level), "error")
		return false, err
	}

	if written {
		metrics.TokenInfoImport(string(level), "written")
		s.logger.Info("token info imported",
			"chain_id", rec.ChainID, "address", rec.Address, "provider", level)
	} else {
		metrics.TokenInfoImport(string(level), "skipped")
	}
	return written, nil
}

// ImportExtracted merges partial records from several extractors and imports
// the result at extractor level. Earlier parts take precedence field by field.
func (s *service) ImportExtracted(ctx context.Context, parts []TokenInfo) (bool, error) {
	merged, err := MergeExtracted(parts)
	if err != nil {
		return false, err
	}
	return s.Import(ctx, merged, ProviderExtractor)
}

// Get returns the token info record for a token, if any.
func (s *service) Get(ctx context.Context, chainID int64, token common.Address) (*TokenInfo, error) {
	rec, err := s.store.GetTokenInfo(ctx, chainID, addressKey(token))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListUser returns token infos for the addresses a user has verified on a
// chain.
func (s *service) ListUser(ctx context.Context, chainID int64, userEmail string) ([]TokenInfo, error) {
	return s.store.ListUserTokenInfos(ctx, chainID, userEmail)
}

// addressKey is the storage form of an address: lowercase 0x hex.
func addressKey(addr common.Address) string {
	return fmt.Sprintf("0x%x", addr[:])
}
