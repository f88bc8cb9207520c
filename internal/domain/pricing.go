package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Quote is the effective price and availability for a product with an
// optionally resolved variant.
type Quote struct {
	// UnitPrice is the price a cart line freezes at add time: the
	// variant price when a variant is resolved, else the sale price
	// when present, else the list price.
	UnitPrice decimal.Decimal `json:"unit_price"`

	// OriginalPrice is the struck-through list price, present only when
	// a sale price applies and no variant overrides it.
	OriginalPrice decimal.NullDecimal `json:"original_price"`

	// DiscountPercent is round((original-effective)/original*100),
	// present only when the original price exceeds the effective one.
	DiscountPercent int  `json:"discount_percent"`
	HasDiscount     bool `json:"has_discount"`

	StockQuantity int  `json:"stock_quantity"`
	InStock       bool `json:"in_stock"`
}

// ComputeQuote derives the effective unit price, struck-through price,
// discount percentage and availability for the given product and
// resolved variant. Pass a nil variant when no variant applies.
func ComputeQuote(product *Product, variant *Variant) Quote {
	q := Quote{}

	switch {
	case variant != nil:
		q.UnitPrice = variant.Price
		q.StockQuantity = variant.StockQuantity
	case product.SalePrice.Valid:
		q.UnitPrice = product.SalePrice.Decimal
		q.OriginalPrice = decimal.NullDecimal{Decimal: product.Price, Valid: true}
		q.StockQuantity = product.StockQuantity
	default:
		q.UnitPrice = product.Price
		q.StockQuantity = product.StockQuantity
	}

	if q.OriginalPrice.Valid && q.OriginalPrice.Decimal.GreaterThan(q.UnitPrice) {
		orig := q.OriginalPrice.Decimal
		pct := orig.Sub(q.UnitPrice).Div(orig).Mul(hundred).Round(0)
		q.DiscountPercent = int(pct.IntPart())
		q.HasDiscount = true
	}

	q.InStock = product.Active && q.StockQuantity > 0
	return q
}
