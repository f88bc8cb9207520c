package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLineItem is one line of a cart. The unit price is resolved at add
// time and never re-derived. Attributes carry the flattened variant
// option pairs for display and order records only; identity is the
// composite ID alone.
type CartLineItem struct {
	// ID is "<productID>" or "<productID>-<variantID>" when a variant
	// was resolved at add time.
	ID         string            `json:"id"`
	ProductID  uuid.UUID         `json:"product_id"`
	VariantID  *uuid.UUID        `json:"variant_id,omitempty"`
	Name       string            `json:"name"`
	SKU        string            `json:"sku"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	ImageURL   string            `json:"image_url"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Quantity   int               `json:"quantity"`
}

// LineItemID builds the composite cart key for a product and an
// optionally resolved variant.
func LineItemID(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String()
	}
	return productID.String() + "-" + variantID.String()
}

// LineTotal returns unit price times quantity
func (li *CartLineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart accumulates line items for a user or guest
type Cart struct {
	Items     []CartLineItem `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Add folds a line item into the cart: a line with the same composite ID
// has its quantity increased, otherwise the item is appended. Quantities
// below one are coerced to one.
func (c *Cart) Add(item CartLineItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	item.Quantity = quantity
	c.Items = append(c.Items, item)
}

// SetQuantity replaces the quantity of the line with the given composite
// ID. A quantity below one removes the line. Returns false when no line
// matches.
func (c *Cart) SetQuantity(id string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ID != id {
			continue
		}
		if quantity < 1 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		return true
	}
	return false
}

// Remove deletes the line with the given composite ID
func (c *Cart) Remove(id string) bool {
	return c.SetQuantity(id, 0)
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = nil
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity sums quantities over all lines
func (c *Cart) TotalQuantity() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// TotalPrice sums unit price times quantity over all lines
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return total
}

// FinalTotal is the subtotal minus a cart-level promotional discount,
// clamped at zero so a discount larger than the subtotal never produces
// a negative payable amount.
func (c *Cart) FinalTotal(discount decimal.Decimal) decimal.Decimal {
	total := c.TotalPrice().Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
