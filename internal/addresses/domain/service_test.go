package domain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokendesk/contractsinfo/internal/blockscout"
	"github.com/tokendesk/contractsinfo/internal/ownership"
	"github.com/tokendesk/contractsinfo/internal/storage"
)

var (
	testContract = common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	testCreator  = common.HexToAddress("0xaaaa567890abcdef1234567890abcdef12345678")
)

const testSite = "eth.blockscout.com"

// mockExplorer implements both ownership.ExplorerClient and Explorer so one
// fake serves the resolver, validator and service.
type mockExplorer struct {
	addressFn func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error)
	tokenFn   func(ctx context.Context, addr common.Address) (*blockscout.Token, error)
}

func (m *mockExplorer) Address(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
	return m.addressFn(ctx, addr)
}

func (m *mockExplorer) Transaction(ctx context.Context, hash common.Hash) (*blockscout.Transaction, error) {
	return nil, errors.New("unexpected Transaction call")
}

func (m *mockExplorer) ReadMethods(ctx context.Context, addr common.Address) ([]blockscout.Method, error) {
	return nil, nil
}

func (m *mockExplorer) ProxyReadMethods(ctx context.Context, addr common.Address) ([]blockscout.Method, error) {
	return nil, nil
}

func (m *mockExplorer) Token(ctx context.Context, addr common.Address) (*blockscout.Token, error) {
	if m.tokenFn != nil {
		return m.tokenFn(ctx, addr)
	}
	return nil, blockscout.ErrNotFound
}

func (m *mockExplorer) Host() string {
	return testSite
}

// mockStore is a hand-rolled Store backed by per-call hooks.
type mockStore struct {
	getFn         func(ctx context.Context, chainID int64, address string) (*storage.VerifiedAddress, error)
	countFn       func(ctx context.Context, chainID int64, ownerEmail string) (int64, error)
	createOrGetFn func(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error)
	listFn        func(ctx context.Context, chainID int64, ownerEmail string) ([]storage.VerifiedAddress, error)
}

func (m *mockStore) GetVerifiedAddress(ctx context.Context, chainID int64, address string) (*storage.VerifiedAddress, error) {
	if m.getFn != nil {
		return m.getFn(ctx, chainID, address)
	}
	return nil, storage.ErrNotFound
}

func (m *mockStore) CountVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, chainID, ownerEmail)
	}
	return 0, nil
}

func (m *mockStore) CreateOrGetVerifiedAddress(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error) {
	return m.createOrGetFn(ctx, rec)
}

func (m *mockStore) ListVerifiedAddresses(ctx context.Context, chainID int64, ownerEmail string) ([]storage.VerifiedAddress, error) {
	return m.listFn(ctx, chainID, ownerEmail)
}

func ownedContract(creator common.Address) *blockscout.AddressInfo {
	return &blockscout.AddressInfo{
		CreatorAddressHash: &creator,
		IsContract:         true,
		IsVerified:         true,
	}
}

func newTestService(store Store, explorer *mockExplorer) *service {
	logger := slog.New(slog.DiscardHandler)
	resolver := ownership.NewResolver(explorer)
	validator := ownership.NewValidator(resolver, logger)
	return NewService(store, resolver, validator, explorer, 10, logger)
}

func signedClaim(t *testing.T, key *ecdsa.PrivateKey, contract common.Address) (string, []byte) {
	t.Helper()
	text := ownership.NewMessage(testSite, contract).String()
	sig, err := crypto.Sign(accounts.TextHash([]byte(text)), key)
	require.NoError(t, err)
	return text, sig
}

func TestPrepare_Success(t *testing.T) {
	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return ownedContract(testCreator), nil
		},
	}
	svc := newTestService(&mockStore{}, explorer)

	prepared, err := svc.Prepare(context.Background(), 1, testContract)
	require.NoError(t, err)

	assert.Equal(t, testCreator, prepared.ContractCreator)
	assert.Nil(t, prepared.ContractOwner)
	assert.Equal(t, testSite, prepared.SigningMessage.Site)
	assert.Equal(t, testContract, prepared.SigningMessage.Address)
}

func TestPrepare_AlreadyVerified(t *testing.T) {
	store := &mockStore{
		getFn: func(ctx context.Context, chainID int64, address string) (*storage.VerifiedAddress, error) {
			return &storage.VerifiedAddress{OwnerEmail: "first@example.com"}, nil
		},
	}
	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			t.Fatal("explorer should not be called for an already verified address")
			return nil, nil
		},
	}
	svc := newTestService(store, explorer)

	_, err := svc.Prepare(context.Background(), 1, testContract)

	var verified *AddressIsVerifiedError
	require.ErrorAs(t, err, &verified)
	assert.Equal(t, "first@example.com", verified.OwnerEmail)
}

func TestPrepare_ResolutionFailure(t *testing.T) {
	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return nil, blockscout.ErrNotFound
		},
	}
	svc := newTestService(&mockStore{}, explorer)

	_, err := svc.Prepare(context.Background(), 1, testContract)
	assert.ErrorIs(t, err, ownership.ErrContractNotFound)
}

func TestVerify_Success(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	tokenName := "Test Token"
	tokenSymbol := "TST"
	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return ownedContract(signer), nil
		},
		tokenFn: func(ctx context.Context, addr common.Address) (*blockscout.Token, error) {
			return &blockscout.Token{Name: &tokenName, Symbol: &tokenSymbol}, nil
		},
	}
	store := &mockStore{
		createOrGetFn: func(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error) {
			assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", rec.Address)
			assert.Equal(t, "user@example.com", rec.OwnerEmail)
			require.NotNil(t, rec.TokenName)
			assert.Equal(t, "Test Token", *rec.TokenName)
			stored := *rec
			stored.ID = "row-1"
			stored.VerifiedAt = time.Now().UTC()
			return &stored, nil
		},
	}
	svc := newTestService(store, explorer)

	message, signature := signedClaim(t, key, testContract)
	row, err := svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "user@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})
	require.NoError(t, err)

	assert.Equal(t, "row-1", row.ID)
	assert.Equal(t, "user@example.com", row.OwnerEmail)
}

func TestVerify_QuotaExceeded(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			t.Fatal("explorer should not be called when over quota")
			return nil, nil
		},
	}
	store := &mockStore{
		countFn: func(ctx context.Context, chainID int64, ownerEmail string) (int64, error) {
			return 10, nil
		},
	}
	svc := newTestService(store, explorer)

	message, signature := signedClaim(t, key, testContract)
	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "user@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})

	var quota *MaxVerifiedAddressesError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, int64(10), quota.Limit)
}

func TestVerify_ZeroQuota(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			t.Fatal("explorer should not be called when quota is zero")
			return nil, nil
		},
	}
	resolver := ownership.NewResolver(explorer)
	svc := NewService(&mockStore{}, resolver, ownership.NewValidator(resolver, logger), explorer, 0, logger)

	message, signature := signedClaim(t, key, testContract)
	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "user@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})

	var quota *MaxVerifiedAddressesError
	assert.ErrorAs(t, err, &quota)
}

func TestVerify_WrongSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return ownedContract(testCreator), nil
		},
	}
	svc := newTestService(&mockStore{}, explorer)

	message, signature := signedClaim(t, key, testContract)
	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "user@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})

	var wrongOwner *ownership.WrongOwnerError
	require.ErrorAs(t, err, &wrongOwner)
	assert.Equal(t, []common.Address{testCreator}, wrongOwner.PossibleOwners)
}

func TestVerify_ConcurrentWinnerKeepsRow(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return ownedContract(signer), nil
		},
	}
	store := &mockStore{
		createOrGetFn: func(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error) {
			// Another verifier won the insert race.
			return &storage.VerifiedAddress{
				ChainID:    rec.ChainID,
				Address:    rec.Address,
				OwnerEmail: "winner@example.com",
			}, nil
		},
	}
	svc := newTestService(store, explorer)

	message, signature := signedClaim(t, key, testContract)
	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "loser@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})

	var verified *AddressIsVerifiedError
	require.ErrorAs(t, err, &verified)
	assert.Equal(t, "winner@example.com", verified.OwnerEmail)
}

func TestVerify_ReVerificationIsIdempotent(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return ownedContract(signer), nil
		},
	}
	original := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &mockStore{
		createOrGetFn: func(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error) {
			// The original row survives, insert was a no-op.
			return &storage.VerifiedAddress{
				ChainID:    rec.ChainID,
				Address:    rec.Address,
				OwnerEmail: rec.OwnerEmail,
				VerifiedAt: original,
			}, nil
		},
	}
	svc := newTestService(store, explorer)

	message, signature := signedClaim(t, key, testContract)
	row, err := svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "user@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})
	require.NoError(t, err)
	assert.Equal(t, original, row.VerifiedAt)
}

func TestVerify_TokenLookupDegradesGracefully(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return ownedContract(signer), nil
		},
		tokenFn: func(ctx context.Context, addr common.Address) (*blockscout.Token, error) {
			return nil, blockscout.ErrNotFound
		},
	}
	store := &mockStore{
		createOrGetFn: func(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error) {
			assert.Nil(t, rec.TokenName)
			assert.Nil(t, rec.TokenSymbol)
			return rec, nil
		},
	}
	svc := newTestService(store, explorer)

	message, signature := signedClaim(t, key, testContract)
	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "user@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})
	require.NoError(t, err)
}

func TestVerify_TokenLookupHardFailure(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	explorer := &mockExplorer{
		addressFn: func(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error) {
			return ownedContract(signer), nil
		},
		tokenFn: func(ctx context.Context, addr common.Address) (*blockscout.Token, error) {
			return nil, errors.New("explorer down")
		},
	}
	store := &mockStore{
		createOrGetFn: func(ctx context.Context, rec *storage.VerifiedAddress) (*storage.VerifiedAddress, error) {
			t.Fatal("nothing should be stored when the token lookup fails")
			return nil, nil
		},
	}
	svc := newTestService(store, explorer)

	message, signature := signedClaim(t, key, testContract)
	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserEmail: "user@example.com",
		ChainID:   1,
		Contract:  testContract,
		Message:   message,
		Signature: signature,
	})
	require.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(&mockStore{}, &mockExplorer{})

	_, err := svc.Get(context.Background(), 1, testContract)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	store := &mockStore{
		listFn: func(ctx context.Context, chainID int64, ownerEmail string) ([]storage.VerifiedAddress, error) {
			assert.Equal(t, int64(1), chainID)
			assert.Equal(t, "user@example.com", ownerEmail)
			return []storage.VerifiedAddress{{Address: "0xabc"}}, nil
		},
	}
	svc := newTestService(store, &mockExplorer{})

	rows, err := svc.List(context.Background(), 1, "user@example.com")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
