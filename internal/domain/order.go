package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is a known status value
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
// Orders advance pending -> confirmed -> shipped -> delivered; any
// non-terminal status may move to cancelled. Orders are never deleted.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	}
	return false
}

// ShippingInfo is the checkout shipping form snapshot stored with the order
type ShippingInfo struct {
	FullName string `json:"full_name" db:"full_name"`
	Phone    string `json:"phone" db:"phone"`
	Address  string `json:"address" db:"address"`
	City     string `json:"city" db:"city"`
	State    string `json:"state" db:"state"`
	PinCode  string `json:"pin_code" db:"pin_code"`
}

// Order is created once at checkout completion and afterwards mutated
// only through status updates.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Status        OrderStatus     `json:"status" db:"status"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Shipping      ShippingInfo    `json:"shipping"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem snapshots a cart line at checkout; product data is frozen
// and never re-read from the catalog.
type OrderItem struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OrderID    uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	VariantID  *uuid.UUID      `json:"variant_id,omitempty" db:"variant_id"`
	Name       string          `json:"name" db:"name"`
	SKU        string          `json:"sku" db:"sku"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	Size       string          `json:"size,omitempty" db:"size"`
	Color      string          `json:"color,omitempty" db:"color"`
}

// SnapshotCartLine freezes a cart line into an order item. Size and
// color tags are lifted from the flattened variant attributes when
// present.
func SnapshotCartLine(orderID uuid.UUID, line CartLineItem) OrderItem {
	return OrderItem{
		ID:         uuid.New(),
		OrderID:    orderID,
		ProductID:  line.ProductID,
		VariantID:  line.VariantID,
		Name:       line.Name,
		SKU:        line.SKU,
		Quantity:   line.Quantity,
		UnitPrice:  line.UnitPrice,
		TotalPrice: line.LineTotal(),
		Size:       line.Attributes["size"],
		Color:      line.Attributes["color"],
	}
}
