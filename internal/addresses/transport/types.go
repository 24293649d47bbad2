// Package transport provides HTTP request/response types for the addresses domain.
package transport

import (
	"time"

	"github.com/tokendesk/contractsinfo/internal/addresses/domain"
)

// PrepareRequest is the HTTP request body for preparing a verification.
type PrepareRequest struct {
	Address string `json:"address"`
}

// PrepareResponse carries the message the user must sign.
type PrepareResponse struct {
	SigningMessage  string  `json:"signingMessage"`
	ContractCreator string  `json:"contractCreator"`
	ContractOwner   *string `json:"contractOwner,omitempty"`
}

// VerifyRequest is the HTTP request body for submitting a signed claim.
type VerifyRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// AddressMetadata is the token snapshot taken at verification time.
type AddressMetadata struct {
	TokenName   *string `json:"tokenName"`
	TokenSymbol *string `json:"tokenSymbol"`
}

// VerifiedAddressResponse is the wire form of a verified address.
type VerifiedAddressResponse struct {
	UserEmail       string          `json:"userEmail"`
	ChainID         int64           `json:"chainId"`
	ContractAddress string          `json:"contractAddress"`
	VerifiedDate    string          `json:"verifiedDate"`
	Metadata        AddressMetadata `json:"metadata"`
}

// ListResponse is the response for listing a user's verified addresses.
type ListResponse struct {
	VerifiedAddresses []VerifiedAddressResponse `json:"verifiedAddresses"`
}

// OwnerResponse is the response for the owner lookup endpoint.
type OwnerResponse struct {
	UserEmail string `json:"userEmail"`
}

// FromDomain converts a domain record to its wire form.
func FromDomain(rec *domain.VerifiedAddress) VerifiedAddressResponse {
	return VerifiedAddressResponse{
		UserEmail:       rec.OwnerEmail,
		ChainID:         rec.ChainID,
		ContractAddress: rec.Address,
		VerifiedDate:    rec.VerifiedAt.UTC().Format(time.RFC3339),
		Metadata: AddressMetadata{
			TokenName:   rec.TokenName,
			TokenSymbol: rec.TokenSymbol,
		},
	}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information. PossibleOwners is only set for
// wrong-owner rejections.
type ErrorDetail struct {
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	PossibleOwners []string `json:"possibleOwners,omitempty"`
}
