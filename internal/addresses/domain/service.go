// Package domain contains the business logic for verified addresses.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokendesk/contractsinfo/internal/blockscout"
	"github.com/tokendesk/contractsinfo/internal/observability/metrics"
	"github.com/tokendesk/contractsinfo/internal/ownership"
	"github.com/tokendesk/contractsinfo/internal/storage"
)

// ErrNotFound is returned when no verified address exists.
var ErrNotFound = errors.New("not found")

// verificationWindow is how far in the past a signed message may be dated.
// There is no upper bound, clients with skewed clocks may sign in the future.
const verificationWindow = 24 * time.Hour

// Store defines the storage operations needed by the addresses domain.
type Store interface {
	GetVerifiedAddress(ctx context.Context, chainID int64, address string) (*storage.VerifiedAddress, error)
	CountVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) (int64, error)
	CreateOrGetVerifiedAddress(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error)
	ListVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) ([]storage.VerifiedAddress, error)
}

// Explorer is the subset of the explorer client the addresses domain needs
// beyond ownership resolution.
type Explorer interface {
	Token(ctx context.Context, addr common.Address) (*blockscout.Token, error)
	Host() string
}

type service struct {
	store                Store
	resolver             *ownership.Resolver
	validator            *ownership.Validator
	explorer             Explorer
	maxVerifiedAddresses int64
	logger               *slog.Logger
}

// NewService creates a new verified-addresses service.
func NewService(store Store, resolver *ownership.Resolver, validator *ownership.Validator, explorer Explorer, maxVerifiedAddresses int64, logger *slog.Logger) *service {
	return &service{
		store:                store,
		resolver:             resolver,
		validator:            validator,
		explorer:             explorer,
		maxVerifiedAddresses: maxVerifiedAddresses,
		logger:               logger,
	}
}

// Prepare builds the message a user must sign to claim contract. It fails
// early when the address already belongs to an account or when the contract
// cannot yield any ownership candidates.
func (s *service) Prepare(ctx context.Context, chainID int64, contract common.Address) (*PreparedAddress, error) {
	existing, err := s.store.GetVerifiedAddress(ctx, chainID, addressKey(contract))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("getting verified address: %w", err)
	}
	if existing != nil {
		metrics.AddressPrepare("already_verified")
		return nil, &AddressIsVerifiedError{OwnerEmail: existing.OwnerEmail}
	}

	options, err := s.resolver.ResolveOwnershipOptions(ctx, contract)
	if err != nil {
		metrics.AddressPrepare("error")
		return nil, err
	}

	metrics.AddressPrepare("success")
	return &PreparedAddress{
		SigningMessage:  ownership.NewMessage(s.explorer.Host(), contract),
		ContractCreator: options.Creator,
		ContractOwner:   options.Owner,
	}, nil
}

// Verify checks a signed ownership claim and records the verified address.
// Re-verification by the same user is idempotent and keeps the original row.
func (s *service) Verify(ctx context.Context, req VerifyRequest) (*VerifiedAddress, error) {
	// The quota check comes first so that over-quota users cost no explorer
	// round trips.
	count, err := s.store.CountVerifiedAddresses(ctx, req.ChainID, req.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("counting verified addresses: %w", err)
	}
	if count >= s.maxVerifiedAddresses {
		metrics.AddressVerification("quota_exceeded")
		return nil, &MaxVerifiedAddressesError{Limit: s.maxVerifiedAddresses}
	}

	minTimestamp := time.Now().UTC().Add(-verificationWindow)
	validated, err := s.validator.ValidateOwnership(ctx, req.Signature, req.Message, req.Contract, s.explorer.Host(), minTimestamp)
	if err != nil {
		metrics.AddressVerification("rejected")
		return nil, err
	}

	tokenName, tokenSymbol, err := s.fetchTokenMetadata(ctx, validated.Contract)
	if err != nil {
		return nil, err
	}

	row, err := s.store.CreateOrGetVerifiedAddress(ctx, &storage.VerifiedAddress{
		ChainID:     req.ChainID,
		Address:     addressKey(validated.Contract),
		OwnerEmail:  req.UserEmail,
		TokenName:   tokenName,
		TokenSymbol: tokenSymbol,
	})
	if err != nil {
		return nil, fmt.Errorf("storing verified address: %w", err)
	}

	// A concurrent verifier may have won the insert. The row decides.
	if row.OwnerEmail != req.UserEmail {
		metrics.AddressVerification("already_verified")
		return nil, &AddressIsVerifiedError{OwnerEmail: row.OwnerEmail}
	}

	metrics.AddressVerification("success")
	s.logger.Info("address verified",
		"chain_id", req.ChainID, "address", row.Address, "owner", req.UserEmail)
	return row, nil
}

// fetchTokenMetadata snapshots the token name and symbol at verification time.
// A missing token record is normal, not every contract is a token.
func (s *service) fetchTokenMetadata(ctx context.Context, contract common.Address) (*string, *string, error) {
	token, err := s.explorer.Token(ctx, contract)
	if err != nil {
		if errors.Is(err, blockscout.ErrNotFound) {
			s.logger.Warn("no token record for verified address", "address", contract)
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("fetching token metadata: %w", err)
	}
	return token.Name, token.Symbol, nil
}

// List returns the addresses a user has verified on a chain.
func (s *service) List(ctx context.Context, chainID int64, userEmail string) ([]VerifiedAddress, error) {
	return s.store.ListVerifiedAddresses(ctx, chainID, userEmail)
}

// Get returns the verified address record for a contract, if any.
func (s *service) Get(ctx context.Context, chainID int64, contract common.Address) (*VerifiedAddress, error) {
	row, err := s.store.GetVerifiedAddress(ctx, chainID, addressKey(contract))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return row, err
}

// addressKey is the storage form of an address: lowercase 0x hex.
func addressKey(addr common.Address) string {
	return fmt.Sprintf("0x%x", addr[:])
}
