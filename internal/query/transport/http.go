// Package transport provides HTTP handlers for the contract query domain.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/surefi/surefi-gateway/internal/apperr"
	"github.com/surefi/surefi-gateway/internal/query/domain"
)

// AddressParam is the query parameter carrying the account to check.
const AddressParam = "address"

// Service defines the query service interface for HTTP transport.
type Service interface {
	Owner(ctx context.Context) (*domain.OwnerResult, error)
	Verified(ctx context.Context, address string) (*domain.VerifiedResult, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithStrictStatus reports malformed addresses as 400 instead of 500.
func WithStrictStatus(strict bool) Option {
	return func(h *Handler) {
		h.strictStatus = strict
	}
}

// Handler handles HTTP requests for contract queries.
type Handler struct {
	svc          Service
	strictStatus bool
}

// NewHandler creates a new query HTTP handler.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the query routes on a chi router. Both the bare
// and trailing-slash forms are served so clients need not follow redirects.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/owner", h.handleOwner)
	r.Get("/owner/", h.handleOwner)
	r.Get("/verified", h.handleVerified)
	r.Get("/verified/", h.handleVerified)
}

func (h *Handler) handleOwner(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Owner(r.Context())
	if err != nil {
		writeError(w, h.statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVerified(w http.ResponseWriter, r *http.Request) {
	address := lastValue(r.URL.Query(), AddressParam)
	if address == "" {
		writeError(w, http.StatusBadRequest, domain.ErrMissingAddress.Error())
		return
	}

	result, err := h.svc.Verified(r.Context(), address)
	if err != nil {
		writeError(w, h.statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// lastValue returns the last value given for key, so a repeated parameter
// resolves to its final occurrence.
func lastValue(values url.Values, key string) string {
	vs := values[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

// statusFor maps a service error to an HTTP status code. Malformed
// addresses are server errors unless strict status reporting is on.
func (h *Handler) statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingAddress):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAddress):
		if h.strictStatus {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	case apperr.KindOf(err) == apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
