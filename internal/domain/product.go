package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MediaKind distinguishes product gallery entries
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Product represents a product in the catalog
type Product struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	Name          string              `json:"name" db:"name"`
	Description   string              `json:"description" db:"description"`
	Collection    string              `json:"collection" db:"collection"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	SalePrice     decimal.NullDecimal `json:"sale_price" db:"sale_price"`
	StockQuantity int                 `json:"stock_quantity" db:"stock_quantity"`
	Active        bool                `json:"active" db:"active"`
	Images        []ProductImage      `json:"images,omitempty"`
	Specs         []ProductSpec       `json:"specs,omitempty"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// ProductImage is a gallery entry for a product
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	Kind      MediaKind `json:"kind" db:"kind"`
	Primary   bool      `json:"primary" db:"is_primary"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductSpec is a free-text specification line shown on the product page
type ProductSpec struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Label     string    `json:"label" db:"label"`
	Value     string    `json:"value" db:"value"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
}

// PrimaryImage returns the image flagged as primary, falling back to the
// first gallery entry when none is flagged.
func (p *Product) PrimaryImage() (ProductImage, bool) {
	for _, img := range p.Images {
		if img.Primary {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return ProductImage{}, false
}
