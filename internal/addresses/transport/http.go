// Package transport provides HTTP handlers for the addresses domain.
package transport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/tokendesk/contractsinfo/internal/addresses/domain"
	"github.com/tokendesk/contractsinfo/internal/auth"
	"github.com/tokendesk/contractsinfo/internal/ownership"
	"github.com/tokendesk/contractsinfo/internal/validation"
)

// Service defines the addresses service interface for HTTP transport.
type Service interface {
	Prepare(ctx context.Context, chainID int64, contract common.Address) (*domain.PreparedAddress, error)
	Verify(ctx context.Context, req domain.VerifyRequest) (*domain.VerifiedAddress, error)
	List(ctx context.Context, chainID int64, userEmail string) ([]domain.VerifiedAddress, error)
	Get(ctx context.Context, chainID int64, contract common.Address) (*domain.VerifiedAddress, error)
}

// Handler handles HTTP requests for verified addresses.
type Handler struct {
	svc Service
}

// NewHandler creates a new addresses HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the addresses routes on a chi router. The router is
// expected to be mounted under a /chains/{chainId} pattern by the caller.
// session guards user endpoints, apiKey guards service endpoints.
func (h *Handler) RegisterRoutes(r chi.Router, session, apiKey func(http.Handler) http.Handler) {
	r.With(session).Post("/verified-addresses:prepare", h.handlePrepare)
	r.With(session).Post("/verified-addresses:verify", h.handleVerify)
	r.With(session).Get("/verified-addresses", h.handleList)
	r.With(apiKey).Get("/verified-addresses/{address}/owner", h.handleGetOwner)
}

func (h *Handler) handlePrepare(w http.ResponseWriter, r *http.Request) {
	chainID, ok := chainIDFromRequest(w, r)
	if !ok {
		return
	}

	var req PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON")
		return
	}
	if err := validation.ValidateAddress(req.Address); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	prepared, err := h.svc.Prepare(r.Context(), chainID, common.HexToAddress(req.Address))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := PrepareResponse{
		SigningMessage:  prepared.SigningMessage.String(),
		ContractCreator: lowerHex(prepared.ContractCreator),
	}
	if prepared.ContractOwner != nil {
		owner := lowerHex(*prepared.ContractOwner)
		resp.ContractOwner = &owner
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	chainID, ok := chainIDFromRequest(w, r)
	if !ok {
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON")
		return
	}
	if err := validation.ValidateAddress(req.Address); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := validation.ValidateSignature(req.Signature); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid signature encoding")
		return
	}

	verified, err := h.svc.Verify(r.Context(), domain.VerifyRequest{
		UserEmail: auth.GetUserEmailFromContext(r.Context()),
		ChainID:   chainID,
		Contract:  common.HexToAddress(req.Address),
		Message:   req.Message,
		Signature: signature,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromDomain(verified))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	chainID, ok := chainIDFromRequest(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.List(r.Context(), chainID, auth.GetUserEmailFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ListResponse{VerifiedAddresses: make([]VerifiedAddressResponse, 0, len(rows))}
	for i := range rows {
		resp.VerifiedAddresses = append(resp.VerifiedAddresses, FromDomain(&rows[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	chainID, ok := chainIDFromRequest(w, r)
	if !ok {
		return
	}
	address := chi.URLParam(r, "address")
	if err := validation.ValidateAddress(address); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	row, err := h.svc.Get(r.Context(), chainID, common.HexToAddress(address))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OwnerResponse{UserEmail: row.OwnerEmail})
}

// writeDomainError maps domain and ownership errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	var alreadyVerified *domain.AddressIsVerifiedError
	var quota *domain.MaxVerifiedAddressesError
	var wrongOwner *ownership.WrongOwnerError
	var requestErr *ownership.RequestError

	switch {
	case errors.As(err, &alreadyVerified):
		writeError(w, http.StatusConflict, "ADDRESS_ALREADY_VERIFIED", alreadyVerified.Error())
	case errors.As(err, &quota):
		writeError(w, http.StatusTooManyRequests, "LIMIT_EXCEEDED", quota.Error())
	case errors.As(err, &wrongOwner):
		possible := make([]string, 0, len(wrongOwner.PossibleOwners))
		for _, a := range wrongOwner.PossibleOwners {
			possible = append(possible, lowerHex(a))
		}
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: ErrorDetail{
			Code:           "WRONG_OWNER",
			Message:        wrongOwner.Error(),
			PossibleOwners: possible,
		}})
	case errors.Is(err, ownership.ErrContractNotFound):
		writeError(w, http.StatusNotFound, "CONTRACT_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Address is not verified")
	case errors.Is(err, ownership.ErrContractNotVerified),
		errors.Is(err, ownership.ErrNoOwner),
		errors.Is(err, ownership.ErrInvalidFormat),
		errors.Is(err, ownership.ErrSiteMismatch),
		errors.Is(err, ownership.ErrAddressMismatch),
		errors.Is(err, ownership.ErrExpired),
		errors.Is(err, ownership.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "INVALID_SIGNED_MESSAGE", err.Error())
	case errors.As(err, &requestErr):
		writeError(w, http.StatusBadGateway, "EXPLORER_ERROR", "Explorer request failed")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}

// Helper functions

func chainIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	chainID, err := strconv.ParseInt(chi.URLParam(r, "chainId"), 10, 64)
	if err != nil || validation.ValidateChainID(chainID) != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid chain ID")
		return 0, false
	}
	return chainID, true
}

func lowerHex(addr common.Address) string {
	return fmt.Sprintf("0x%x", addr[:])
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
