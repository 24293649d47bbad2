// Package blockscout is a thin HTTP client for the Blockscout API v2 endpoints
// used by the ownership and token-info flows. It carries no policy: callers
// decide what a missing contract or an unverified source means.
package blockscout

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound is returned when Blockscout responds with 404 for a resource.
var ErrNotFound = errors.New("blockscout: not found")

// ErrUnauthorized is returned when Blockscout rejects the caller's credentials.
var ErrUnauthorized = errors.New("blockscout: unauthorized")

// StatusError is returned for any other unexpected response status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blockscout: unexpected status %d: %s", e.Status, e.Body)
}

// AddressInfo is the subset of GET /api/v2/addresses/{hash} this service reads.
type AddressInfo struct {
	CreatorAddressHash    *common.Address `json:"creator_address_hash"`
	IsContract            bool            `json:"is_contract"`
	IsVerified            bool            `json:"is_verified"`
	CreationTxHash        *common.Hash    `json:"creation_tx_hash"`
	ImplementationAddress *common.Address `json:"implementation_address"`
}

// TxParty identifies one side of a transaction.
type TxParty struct {
	Hash common.Address `json:"hash"`
}

// Transaction is the subset of GET /api/v2/transactions/{hash} this service reads.
// From is the outermost sender, i.e. tx.origin of the transaction.
type Transaction struct {
	From TxParty `json:"from"`
}

// MethodParam is a single input or output of a read-only contract method.
// Value is only populated on outputs, holding the current on-chain value.
type MethodParam struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// Method is one entry of a contract's read-only method listing.
type Method struct {
	Name    string        `json:"name"`
	Inputs  []MethodParam `json:"inputs"`
	Outputs []MethodParam `json:"outputs"`
}

// Token is the subset of GET /api/v2/tokens/{hash} this service reads.
type Token struct {
	Name   *string `json:"name"`
	Symbol *string `json:"symbol"`
}

// UserInfo is the authenticated account behind a Blockscout session token.
type UserInfo struct {
	Email string `json:"email"`
}
