package transport

import (
	"errors"
	"net/http"

	"ehsaas-jewels/internal/domain"
	"ehsaas-jewels/internal/middleware"
	"ehsaas-jewels/internal/repository"
	"ehsaas-jewels/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddToCartRequest adds a product (with an optional option selection) to
// the cart.
type AddToCartRequest struct {
	ProductID string            `json:"product_id" validate:"required,uuid"`
	Selection map[string]string `json:"selection"`
	Quantity  int               `json:"quantity" validate:"gte=0"`
}

// UpdateQuantityRequest replaces a line's quantity; zero removes it
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CartResponse is the cart with its totals and, for guests, the token
// that identifies the cart on later requests.
type CartResponse struct {
	*service.CartTotals
	GuestCartToken string `json:"guest_cart_token,omitempty"`
}

// CartHandler handles HTTP requests for cart operations. Carts belong to
// the authenticated user when present, otherwise to the guest token sent
// in the X-Guest-Cart-Token header; a missing token mints a new one.
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// RegisterRoutes registers cart routes. The optional auth middleware
// lets both guests and logged-in shoppers through.
func (h *CartHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Put("/items/{lineID}", h.UpdateItem)
		r.Delete("/items/{lineID}", h.RemoveItem)
	})
}

// cartKey resolves the cart identity for the request. Guests without a
// token get a fresh one, returned so the client can persist it.
func (h *CartHandler) cartKey(r *http.Request) (key, guestToken string) {
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		return repository.UserCartKey(userID.String()), ""
	}

	token := r.Header.Get(GuestCartHeader)
	if token == "" {
		token = uuid.New().String()
	}
	return repository.GuestCartKey(token), token
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, key, guestToken string) {
	totals, err := h.carts.GetCart(r.Context(), key, decimal.Zero)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartResponse{
		CartTotals:     totals,
		GuestCartToken: guestToken,
	})
}

// Get returns the cart with its totals
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, guestToken := h.cartKey(r)
	h.respondWithCart(w, r, key, guestToken)
}

// AddItem resolves the selection and folds the line into the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	key, guestToken := h.cartKey(r)

	_, err = h.carts.AddToCart(r.Context(), key, productID, domain.Selection(req.Selection), req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrOutOfStock):
			middleware.RespondWithError(w, http.StatusConflict, "item is out of stock")
		default:
			h.logger.Error("Failed to add to cart", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add to cart")
		}
		return
	}

	h.respondWithCart(w, r, key, guestToken)
}

// UpdateItem replaces a line's quantity
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")

	var req UpdateQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, guestToken := h.cartKey(r)

	if _, err := h.carts.UpdateQuantity(r.Context(), key, lineID, req.Quantity); err != nil {
		if errors.Is(err, service.ErrLineItemNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "cart line not found")
			return
		}
		h.logger.Error("Failed to update cart line", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(w, r, key, guestToken)
}

// RemoveItem deletes a line from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	key, guestToken := h.cartKey(r)

	if _, err := h.carts.RemoveLine(r.Context(), key, lineID); err != nil {
		if errors.Is(err, service.ErrLineItemNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "cart line not found")
			return
		}
		h.logger.Error("Failed to remove cart line", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(w, r, key, guestToken)
}

// Clear empties the cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	key, _ := h.cartKey(r)

	if err := h.carts.ClearCart(r.Context(), key); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
