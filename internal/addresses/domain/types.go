package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokendesk/contractsinfo/internal/ownership"
	"github.com/tokendesk/contractsinfo/internal/storage"
)

// PreparedAddress is what a user needs to start a verification: the exact
// message to sign plus the candidates the explorer knows about.
type PreparedAddress struct {
	SigningMessage  ownership.Message
	ContractCreator common.Address
	ContractOwner   *common.Address
}

// VerifyRequest is a signed ownership claim submitted by a logged-in user.
type VerifyRequest struct {
	UserEmail string
	ChainID   int64
	Contract  common.Address
	Message   string
	Signature []byte
}

// VerifiedAddress is the domain view of an accepted claim.
type VerifiedAddress = storage.VerifiedAddress

// AddressIsVerifiedError is returned when a contract already belongs to
// another user's account.
type AddressIsVerifiedError struct {
	OwnerEmail string
}

func (e *AddressIsVerifiedError) Error() string {
	return fmt.Sprintf("address is already verified by %s", e.OwnerEmail)
}

// MaxVerifiedAddressesError is returned when a user hits the per-chain quota.
type MaxVerifiedAddressesError struct {
	Limit int64
}

func (e *MaxVerifiedAddressesError) Error() string {
	return fmt.Sprintf("max number of verified addresses reached: %d", e.Limit)
}
