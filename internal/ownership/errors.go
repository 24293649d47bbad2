package ownership

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Errors reported while parsing or validating an ownership message.
var (
	ErrInvalidFormat    = errors.New("invalid message format")
	ErrSiteMismatch     = errors.New("message site mismatch")
	ErrAddressMismatch  = errors.New("message address mismatch")
	ErrExpired          = errors.New("message expired")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Errors reported while resolving ownership candidates on chain.
var (
	ErrContractNotFound    = errors.New("contract not found")
	ErrContractNotVerified = errors.New("contract not verified")
	ErrNoOwner             = errors.New("no known contract owner")
)

// RequestError wraps a failed or malformed explorer interaction. It is
// distinct from the domain errors above: the contract may be fine, the lookup
// was not.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("blockscout request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// WrongOwnerError is returned when a signature recovers to an address that is
// neither the contract's creator nor its owner(). PossibleOwners is sorted and
// deduplicated so callers can compare it as a set.
type WrongOwnerError struct {
	Contract       common.Address
	SuggestedOwner common.Address
	PossibleOwners []common.Address
}

func (e *WrongOwnerError) Error() string {
	return fmt.Sprintf("%s is not an owner of contract %s; possible owners: %v",
		e.SuggestedOwner, e.Contract, e.PossibleOwners)
}
