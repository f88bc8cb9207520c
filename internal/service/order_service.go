package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ehsaas-jewels/internal/domain"
	"ehsaas-jewels/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cannot checkout with an empty cart")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrNotOrderOwner     = errors.New("order belongs to another user")
	ErrAdminRequired     = errors.New("admin access required")
)

// CheckoutRequest carries everything checkout finalization needs beyond
// the cart itself.
type CheckoutRequest struct {
	UserID        uuid.UUID
	CartKey       string
	Shipping      domain.ShippingInfo
	PaymentMethod string
	Discount      decimal.Decimal
	// AnalyticsSessionID is the per-visit session id supplied by the
	// client; consumed only by checkout-initiation logging.
	AnalyticsSessionID string
}

// OrderService defines order business logic
type OrderService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, requester *domain.User) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
	ListOrders(ctx context.Context, requester *domain.User, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, requester *domain.User, orderID uuid.UUID, status domain.OrderStatus) error
}

type orderService struct {
	orders repository.OrderRepository
	carts  repository.CartRepository
	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository, logger *zap.Logger) OrderService {
	return &orderService{
		orders: orders,
		carts:  carts,
		logger: logger,
	}
}

// newOrderNumber builds a human-readable order number
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("EH-%s-%s", now.Format("20060102"), suffix)
}

// Checkout freezes the cart into an order: every line becomes an
// OrderItem snapshot, the totals are computed from the frozen prices,
// the order is persisted and the cart cleared. An empty cart cannot
// reach checkout.
func (s *orderService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	cart, err := s.carts.Get(ctx, req.CartKey)
	if err != nil {
		return nil, err
	}

	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	s.logger.Info("Checkout initiated",
		zap.String("user_id", req.UserID.String()),
		zap.String("analytics_session_id", req.AnalyticsSessionID),
		zap.Int("lines", len(cart.Items)),
	)

	discount := req.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   newOrderNumber(now),
		UserID:        req.UserID,
		Status:        domain.OrderStatusPending,
		Subtotal:      cart.TotalPrice(),
		Discount:      discount,
		Total:         cart.FinalTotal(discount),
		PaymentMethod: req.PaymentMethod,
		Shipping:      req.Shipping,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, line := range cart.Items {
		order.Items = append(order.Items, domain.SnapshotCartLine(order.ID, line))
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.carts.Delete(ctx, req.CartKey); err != nil {
		// Order exists; a stale cart is an annoyance, not a failure
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("cart_key", req.CartKey),
			zap.Error(err),
		)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.String()),
	)

	return order, nil
}

// GetOrder returns an order to its owner or to staff
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID, requester *domain.User) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requester.ID && !requester.Role.IsStaff() {
		return nil, ErrNotOrderOwner
	}

	return order, nil
}

// ListUserOrders returns a user's own orders
func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	return s.orders.ListByUser(ctx, userID, page, pageSize)
}

// ListOrders returns all orders with an optional status filter (staff only)
func (s *orderService) ListOrders(ctx context.Context, requester *domain.User, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	if !requester.Role.IsStaff() {
		return nil, 0, ErrAdminRequired
	}
	return s.orders.List(ctx, status, page, pageSize)
}

// UpdateStatus moves an order along its lifecycle. Only staff may update
// statuses and only valid transitions are accepted; orders are never
// deleted.
func (s *orderService) UpdateStatus(ctx context.Context, requester *domain.User, orderID uuid.UUID, status domain.OrderStatus) error {
	if !requester.Role.IsStaff() {
		return ErrAdminRequired
	}

	if !domain.ValidOrderStatus(status) {
		return ErrInvalidTransition
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
		zap.String("updated_by", requester.ID.String()),
	)

	return nil
}
