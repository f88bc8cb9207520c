package service

import (
	"context"
	"errors"

	"ehsaas-jewels/internal/domain"
	"ehsaas-jewels/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrOutOfStock       = errors.New("item is out of stock")
	ErrLineItemNotFound = errors.New("cart line item not found")
)

// CartTotals is the cart with its computed money summary
type CartTotals struct {
	Items      []domain.CartLineItem `json:"items"`
	Subtotal   decimal.Decimal       `json:"subtotal"`
	Discount   decimal.Decimal       `json:"discount"`
	FinalTotal decimal.Decimal       `json:"final_total"`
	Quantity   int                   `json:"quantity"`
}

// CartService defines cart business logic. Carts are keyed either by
// user ID or by a guest cart token.
type CartService interface {
	AddToCart(ctx context.Context, cartKey string, productID uuid.UUID, selection domain.Selection, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, cartKey string, lineID string, quantity int) (*domain.Cart, error)
	RemoveLine(ctx context.Context, cartKey string, lineID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, cartKey string) error
	GetCart(ctx context.Context, cartKey string, discount decimal.Decimal) (*CartTotals, error)
	MergeGuestCart(ctx context.Context, guestKey, userKey string) error
}

type cartService struct {
	carts   repository.CartRepository
	catalog CatalogService
	logger  *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(carts repository.CartRepository, catalog CatalogService, logger *zap.Logger) CartService {
	return &cartService{
		carts:   carts,
		catalog: catalog,
		logger:  logger,
	}
}

// AddToCart resolves the selection against the product's variant catalog,
// freezes the quote into a line item and folds it into the cart. The
// line's unit price is never re-derived afterwards.
func (s *cartService) AddToCart(ctx context.Context, cartKey string, productID uuid.UUID, selection domain.Selection, quantity int) (*domain.Cart, error) {
	view, err := s.catalog.View(ctx, productID, selection)
	if err != nil {
		return nil, err
	}

	if !view.Quote.InStock {
		return nil, ErrOutOfStock
	}

	item := domain.CartLineItem{
		ProductID: productID,
		Name:      view.Product.Name,
		UnitPrice: view.Quote.UnitPrice,
	}

	if view.Variant != nil {
		variantID := view.Variant.ID
		item.VariantID = &variantID
		item.SKU = view.Variant.SKU
		item.Attributes = view.Variant.FlattenOptions()
		if view.Variant.DisplayName != "" {
			item.Name = view.Product.Name + " - " + view.Variant.DisplayName
		}
	}
	item.ID = domain.LineItemID(productID, item.VariantID)

	if view.GalleryImage != nil {
		item.ImageURL = view.GalleryImage.URL
	} else if img, ok := view.Product.PrimaryImage(); ok {
		item.ImageURL = img.URL
	}

	cart, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return nil, err
	}

	cart.Add(item, quantity)

	if err := s.carts.Save(ctx, cartKey, cart); err != nil {
		return nil, err
	}

	s.logger.Debug("Added line to cart",
		zap.String("cart_key", cartKey),
		zap.String("line_id", item.ID),
		zap.Int("quantity", quantity),
	)

	return cart, nil
}

// UpdateQuantity sets a line's quantity; zero removes the line
func (s *cartService) UpdateQuantity(ctx context.Context, cartKey string, lineID string, quantity int) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return nil, err
	}

	if !cart.SetQuantity(lineID, quantity) {
		return nil, ErrLineItemNotFound
	}

	if err := s.carts.Save(ctx, cartKey, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveLine deletes a line from the cart
func (s *cartService) RemoveLine(ctx context.Context, cartKey string, lineID string) (*domain.Cart, error) {
	return s.UpdateQuantity(ctx, cartKey, lineID, 0)
}

// ClearCart empties the cart
func (s *cartService) ClearCart(ctx context.Context, cartKey string) error {
	return s.carts.Delete(ctx, cartKey)
}

// GetCart loads the cart and computes its totals. The discount is a
// cart-level promotional amount supplied by the caller; the final total
// never goes below zero.
func (s *cartService) GetCart(ctx context.Context, cartKey string, discount decimal.Decimal) (*CartTotals, error) {
	cart, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return nil, err
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return &CartTotals{
		Items:      cart.Items,
		Subtotal:   cart.TotalPrice(),
		Discount:   discount,
		FinalTotal: cart.FinalTotal(discount),
		Quantity:   cart.TotalQuantity(),
	}, nil
}

// MergeGuestCart folds a guest cart into the user's cart on login and
// removes the guest cart. Lines with matching composite IDs sum their
// quantities.
func (s *cartService) MergeGuestCart(ctx context.Context, guestKey, userKey string) error {
	guestCart, err := s.carts.Get(ctx, guestKey)
	if err != nil {
		return err
	}
	if guestCart.IsEmpty() {
		return nil
	}

	userCart, err := s.carts.Get(ctx, userKey)
	if err != nil {
		return err
	}

	for _, line := range guestCart.Items {
		userCart.Add(line, line.Quantity)
	}

	if err := s.carts.Save(ctx, userKey, userCart); err != nil {
		return err
	}

	if err := s.carts.Delete(ctx, guestKey); err != nil {
		// The merged cart is already saved; a dangling guest cart only
		// costs its TTL.
		s.logger.Warn("Failed to delete guest cart after merge",
			zap.String("guest_key", guestKey),
			zap.Error(err),
		)
	}

	return nil
}
