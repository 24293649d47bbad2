// Package transport provides HTTP handlers for the token-info domain.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/tokendesk/contractsinfo/internal/auth"
	"github.com/tokendesk/contractsinfo/internal/tokeninfo/domain"
	"github.com/tokendesk/contractsinfo/internal/validation"
)

// Service defines the token-info service interface for HTTP transport.
type Service interface {
	Import(ctx context.Context, rec *domain.TokenInfo, level domain.ProviderLevel) (bool, error)
	ImportExtracted(ctx context.Context, parts []domain.TokenInfo) (bool, error)
	Get(ctx context.Context, chainID int64, token common.Address) (*domain.TokenInfo, error)
	ListUser(ctx context.Context, chainID int64, userEmail string) ([]domain.TokenInfo, error)
}

// Handler handles HTTP requests for token infos.
type Handler struct {
	svc Service
}

// NewHandler creates a new token-info HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the token-info routes on a chi router. The router
// is expected to be mounted under a /chains/{chainId} pattern by the caller.
func (h *Handler) RegisterRoutes(r chi.Router, session, apiKey func(http.Handler) http.Handler) {
	r.Get("/token-infos/{address}", h.handleGet)
	r.With(session).Get("/token-infos", h.handleListUser)
	r.With(apiKey).Post("/token-infos:import", h.handleImport)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	chainID, ok := chainIDFromRequest(w, r)
	if !ok {
		return
	}
	address := chi.URLParam(r, "address")
	if err := validation.ValidateAddress(address); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	rec, err := h.svc.Get(r.Context(), chainID, common.HexToAddress(address))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "No token info for address")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get token info")
		return
	}

	writeJSON(w, http.StatusOK, FromDomain(rec))
}

func (h *Handler) handleListUser(w http.ResponseWriter, r *http.Request) {
	chainID, ok := chainIDFromRequest(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.ListUser(r.Context(), chainID, auth.GetUserEmailFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list token infos")
		return
	}

	resp := ListResponse{TokenInfos: make([]TokenInfoPayload, 0, len(rows))}
	for i := range rows {
		resp.TokenInfos = append(resp.TokenInfos, FromDomain(&rows[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	chainID, ok := chainIDFromRequest(w, r)
	if !ok {
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON")
		return
	}

	level := domain.ProviderLevel(req.Provider)
	if level != domain.ProviderAdminService && level != domain.ProviderExtractor {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Unknown provider level")
		return
	}

	var written bool
	var err error
	switch {
	case req.TokenInfo != nil && len(req.ExtractedParts) == 0:
		rec, verr := payloadToDomain(chainID, *req.TokenInfo)
		if verr != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", verr.Error())
			return
		}
		written, err = h.svc.Import(r.Context(), rec, level)
	case req.TokenInfo == nil && len(req.ExtractedParts) > 0:
		if level != domain.ProviderExtractor {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Extracted parts require the extractor provider level")
			return
		}
		parts := make([]domain.TokenInfo, 0, len(req.ExtractedParts))
		for _, p := range req.ExtractedParts {
			rec, verr := payloadToDomain(chainID, p)
			if verr != nil {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", verr.Error())
				return
			}
			parts = append(parts, *rec)
		}
		written, err = h.svc.ImportExtracted(r.Context(), parts)
	default:
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Exactly one of tokenInfo or extractedParts must be set")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMixedTargets), errors.Is(err, domain.ErrNoParts):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			writeError(w, http.StatusBadGateway, "IMPORT_FAILED", "Failed to import token info")
		}
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Written: written})
}

// payloadToDomain validates a payload and converts it with a normalized
// lowercase address.
func payloadToDomain(chainID int64, p TokenInfoPayload) (*domain.TokenInfo, error) {
	if err := validation.ValidateAddress(p.TokenAddress); err != nil {
		return nil, err
	}
	if p.ChainID != 0 && p.ChainID != chainID {
		return nil, fmt.Errorf("chain ID mismatch: path %d, body %d", chainID, p.ChainID)
	}
	if p.ProjectEmail != "" {
		if err := validation.ValidateEmail(p.ProjectEmail); err != nil {
			return nil, fmt.Errorf("projectEmail: %w", err)
		}
	}
	if p.ProjectWebsite != "" {
		if err := validation.ValidateURL(p.ProjectWebsite); err != nil {
			return nil, fmt.Errorf("projectWebsite: %w", err)
		}
	}
	if p.IconURL != "" {
		if err := validation.ValidateURL(p.IconURL); err != nil {
			return nil, fmt.Errorf("iconUrl: %w", err)
		}
	}
	rec := p.ToDomain(chainID, strings.ToLower(p.TokenAddress))
	return &rec, nil
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

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
