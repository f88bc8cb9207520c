package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantOption is an option axis for a product (e.g. "size"). Option
// names are unique per product.
type VariantOption struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	ProductID   uuid.UUID      `json:"product_id" db:"product_id"`
	Name        string         `json:"name" db:"name"`
	DisplayName string         `json:"display_name" db:"display_name"`
	Values      []VariantValue `json:"values,omitempty"`
	SortOrder   int            `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// VariantValue is a single selectable value of an option axis
type VariantValue struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OptionID     uuid.UUID `json:"option_id" db:"option_id"`
	Value        string    `json:"value" db:"value"`
	DisplayValue string    `json:"display_value" db:"display_value"`
	SortOrder    int       `json:"sort_order" db:"sort_order"`
}

// OptionPair fixes one option axis to one value
type OptionPair struct {
	OptionName string `json:"option_name" db:"option_name"`
	Value      string `json:"value" db:"value"`
}

// Variant is a concrete purchasable combination of option values with its
// own price, stock and images. A variant with no option pairs is the base
// variant: the product with nothing selected.
type Variant struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ProductID     uuid.UUID       `json:"product_id" db:"product_id"`
	DisplayName   string          `json:"display_name" db:"display_name"`
	SKU           string          `json:"sku" db:"sku"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	Options       []OptionPair    `json:"options"`
	Images        []ProductImage  `json:"images,omitempty"`
	SortOrder     int             `json:"sort_order" db:"sort_order"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// IsBase reports whether the variant carries no option pairs
func (v *Variant) IsBase() bool {
	return len(v.Options) == 0
}

// CombinationKey returns a canonical string for the variant's point in
// option space, used to enforce combination uniqueness per product.
func (v *Variant) CombinationKey() string {
	if len(v.Options) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(v.Options))
	for _, p := range v.Options {
		pairs = append(pairs, p.OptionName+"="+p.Value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}

// PrimaryImage returns the variant's own primary image, if it has one.
func (v *Variant) PrimaryImage() (ProductImage, bool) {
	for _, img := range v.Images {
		if img.Primary {
			return img, true
		}
	}
	if len(v.Images) > 0 {
		return v.Images[0], true
	}
	return ProductImage{}, false
}

// Selection is the user's current option choices, keyed by option name
type Selection map[string]string

// VariantCatalog holds the option axes and concrete variants loaded for a
// single product.
type VariantCatalog struct {
	ProductID uuid.UUID       `json:"product_id"`
	Options   []VariantOption `json:"options"`
	Variants  []Variant       `json:"variants"`
}

// HasVariants reports whether the catalog carries any concrete variants
func (c *VariantCatalog) HasVariants() bool {
	return len(c.Variants) > 0
}

// Base returns the unique base variant when one exists
func (c *VariantCatalog) Base() (*Variant, bool) {
	for i := range c.Variants {
		if c.Variants[i].IsBase() {
			return &c.Variants[i], true
		}
	}
	return nil, false
}

// Resolution is the outcome of matching a selection against the catalog
type Resolution struct {
	Variant *Variant
	// ClearedSelection is set when the selection was partial or
	// inconsistent and the caller should reset its selection state.
	ClearedSelection bool
}

// Resolve maps the user's current option selections to exactly one
// variant:
//
//  1. an empty selection matches the base variant;
//  2. otherwise the variant whose option set has the same cardinality as
//     the selection and whose every pair is present in it;
//  3. no match falls back to the base variant and signals the caller to
//     clear its selection.
//
// Combination uniqueness guarantees at most one variant can pass the
// cardinality-and-containment test; should stored data violate it, the
// first match in list order wins.
func (c *VariantCatalog) Resolve(sel Selection) Resolution {
	if len(sel) == 0 {
		base, _ := c.Base()
		return Resolution{Variant: base}
	}

	for i := range c.Variants {
		v := &c.Variants[i]
		if len(v.Options) != len(sel) {
			continue
		}
		if v.matchesSelection(sel) {
			return Resolution{Variant: v}
		}
	}

	base, _ := c.Base()
	return Resolution{Variant: base, ClearedSelection: true}
}

func (v *Variant) matchesSelection(sel Selection) bool {
	for _, p := range v.Options {
		if sel[p.OptionName] != p.Value {
			return false
		}
	}
	return true
}

// AttributeKey normalizes an option name into the flattened attribute key
// carried on cart lines and order records: lower-cased with all
// whitespace stripped.
func AttributeKey(optionName string) string {
	lowered := strings.ToLower(optionName)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, lowered)
}

// FlattenOptions converts a variant's option pairs into display
// attributes keyed by their normalized option name.
func (v *Variant) FlattenOptions() map[string]string {
	if len(v.Options) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(v.Options))
	for _, p := range v.Options {
		attrs[AttributeKey(p.OptionName)] = p.Value
	}
	return attrs
}
