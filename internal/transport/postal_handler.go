package transport

import (
	"errors"
	"net/http"

	"ehsaas-jewels/internal/middleware"
	"ehsaas-jewels/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostalHandler handles pincode lookups for shipping address forms
type PostalHandler struct {
	postal service.PostalService
	logger *zap.Logger
}

// NewPostalHandler creates a new PostalHandler
func NewPostalHandler(postal service.PostalService, logger *zap.Logger) *PostalHandler {
	return &PostalHandler{
		postal: postal,
		logger: logger,
	}
}

// RegisterRoutes registers the public postal routes
func (h *PostalHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/postal/{pincode}", h.Lookup)
}

// Lookup resolves a pincode to its city and state. An unknown pincode is
// a normal answer, not an error.
func (h *PostalHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	pincode := chi.URLParam(r, "pincode")

	address, err := h.postal.Lookup(r.Context(), pincode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPincode) {
			middleware.RespondWithError(w, http.StatusBadRequest, "pincode must be 6 digits")
			return
		}
		h.logger.Error("Pincode lookup failed", zap.String("pincode", pincode), zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "pincode lookup unavailable")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, address)
}
