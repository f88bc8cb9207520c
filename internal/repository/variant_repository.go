package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ehsaas-jewels/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrVariantNotFound       = errors.New("variant not found")
	ErrDuplicateCombination  = errors.New("variant with this option combination already exists")
	ErrDuplicateOptionName   = errors.New("option with this name already exists for the product")
	ErrDuplicateBaseVariant  = errors.New("product already has a base variant")
	ErrVariantOptionNotFound = errors.New("variant option not found")
)

// VariantRepository defines the interface for variant data access
type VariantRepository interface {
	CreateOption(ctx context.Context, option *domain.VariantOption) error
	DeleteOption(ctx context.Context, optionID uuid.UUID) error
	ListOptions(ctx context.Context, productID uuid.UUID) ([]domain.VariantOption, error)
	CreateVariant(ctx context.Context, variant *domain.Variant) error
	UpdateVariant(ctx context.Context, variant *domain.Variant) error
	DeleteVariant(ctx context.Context, variantID uuid.UUID) error
	ListVariants(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error)
}

type variantRepository struct {
	db *sql.DB
}

// NewVariantRepository creates a new instance of VariantRepository
func NewVariantRepository(db *sql.DB) VariantRepository {
	return &variantRepository{db: db}
}

func isUniqueViolation(err error, constraint string) bool {
	return err != nil && strings.Contains(err.Error(), constraint)
}

// CreateOption inserts an option axis with its ordered values. Option
// names are unique per product.
func (r *variantRepository) CreateOption(ctx context.Context, option *domain.VariantOption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO variant_options (id, product_id, name, display_name, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, option.ID, option.ProductID, option.Name, option.DisplayName, option.SortOrder, option.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_variant_options_product_name") {
			return ErrDuplicateOptionName
		}
		return fmt.Errorf("failed to create variant option: %w", err)
	}

	for i, value := range option.Values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO variant_option_values (id, option_id, value, display_value, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, value.ID, option.ID, value.Value, value.DisplayValue, i)
		if err != nil {
			return fmt.Errorf("failed to create variant option value: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit variant option: %w", err)
	}

	return nil
}

// DeleteOption removes an option axis and its values
func (r *variantRepository) DeleteOption(ctx context.Context, optionID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM variant_options WHERE id = $1`, optionID)
	if err != nil {
		return fmt.Errorf("failed to delete variant option: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrVariantOptionNotFound
	}

	return nil
}

// ListOptions retrieves a product's option axes with their ordered values
func (r *variantRepository) ListOptions(ctx context.Context, productID uuid.UUID) ([]domain.VariantOption, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, display_name, sort_order, created_at
		FROM variant_options
		WHERE product_id = $1
		ORDER BY sort_order ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variant options: %w", err)
	}
	defer rows.Close()

	options := []domain.VariantOption{}
	for rows.Next() {
		opt := domain.VariantOption{}
		err := rows.Scan(&opt.ID, &opt.ProductID, &opt.Name, &opt.DisplayName, &opt.SortOrder, &opt.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant option: %w", err)
		}
		options = append(options, opt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant options: %w", err)
	}

	for i := range options {
		values, err := r.loadOptionValues(ctx, options[i].ID)
		if err != nil {
			return nil, err
		}
		options[i].Values = values
	}

	return options, nil
}

func (r *variantRepository) loadOptionValues(ctx context.Context, optionID uuid.UUID) ([]domain.VariantValue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, option_id, value, display_value, sort_order
		FROM variant_option_values
		WHERE option_id = $1
		ORDER BY sort_order ASC
	`, optionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variant option values: %w", err)
	}
	defer rows.Close()

	values := []domain.VariantValue{}
	for rows.Next() {
		v := domain.VariantValue{}
		err := rows.Scan(&v.ID, &v.OptionID, &v.Value, &v.DisplayValue, &v.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant option value: %w", err)
		}
		values = append(values, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant option values: %w", err)
	}

	return values, nil
}

// CreateVariant inserts a variant with its option pairs. The normalized
// combination key carries the uniqueness invariant: duplicate option
// combinations and duplicate base variants are rejected here rather than
// tolerated at resolution time.
func (r *variantRepository) CreateVariant(ctx context.Context, variant *domain.Variant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO variants (id, product_id, display_name, sku, price, stock_quantity, combination_key, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, variant.ID, variant.ProductID, variant.DisplayName, variant.SKU, variant.Price,
		variant.StockQuantity, variant.CombinationKey(), variant.SortOrder, variant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_variants_product_combination") {
			if variant.IsBase() {
				return ErrDuplicateBaseVariant
			}
			return ErrDuplicateCombination
		}
		return fmt.Errorf("failed to create variant: %w", err)
	}

	for i, pair := range variant.Options {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO variant_option_pairs (id, variant_id, option_name, value, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New(), variant.ID, pair.OptionName, pair.Value, i)
		if err != nil {
			return fmt.Errorf("failed to create variant option pair: %w", err)
		}
	}

	for _, img := range variant.Images {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_images (id, product_id, variant_id, url, kind, is_primary, sort_order, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, img.ID, variant.ProductID, variant.ID, img.URL, img.Kind, img.Primary, img.SortOrder, img.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create variant image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit variant: %w", err)
	}

	return nil
}

// UpdateVariant updates a variant's price, stock and display fields. The
// option combination is immutable after creation.
func (r *variantRepository) UpdateVariant(ctx context.Context, variant *domain.Variant) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE variants
		SET display_name = $2, sku = $3, price = $4, stock_quantity = $5, sort_order = $6
		WHERE id = $1
	`, variant.ID, variant.DisplayName, variant.SKU, variant.Price, variant.StockQuantity, variant.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrVariantNotFound
	}

	return nil
}

// DeleteVariant removes a variant, its option pairs and its images
func (r *variantRepository) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM variants WHERE id = $1`, variantID)
	if err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrVariantNotFound
	}

	return nil
}

// ListVariants retrieves a product's variants with their option pairs and
// images, in stable list order.
func (r *variantRepository) ListVariants(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, display_name, sku, price, stock_quantity, sort_order, created_at
		FROM variants
		WHERE product_id = $1
		ORDER BY sort_order ASC, created_at ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	variants := []domain.Variant{}
	for rows.Next() {
		v := domain.Variant{}
		err := rows.Scan(&v.ID, &v.ProductID, &v.DisplayName, &v.SKU, &v.Price, &v.StockQuantity, &v.SortOrder, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	for i := range variants {
		if variants[i].Options, err = r.loadOptionPairs(ctx, variants[i].ID); err != nil {
			return nil, err
		}
		if variants[i].Images, err = r.loadVariantImages(ctx, variants[i].ID); err != nil {
			return nil, err
		}
	}

	return variants, nil
}

func (r *variantRepository) loadOptionPairs(ctx context.Context, variantID uuid.UUID) ([]domain.OptionPair, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT option_name, value
		FROM variant_option_pairs
		WHERE variant_id = $1
		ORDER BY sort_order ASC
	`, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variant option pairs: %w", err)
	}
	defer rows.Close()

	pairs := []domain.OptionPair{}
	for rows.Next() {
		p := domain.OptionPair{}
		if err := rows.Scan(&p.OptionName, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan variant option pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant option pairs: %w", err)
	}

	return pairs, nil
}

func (r *variantRepository) loadVariantImages(ctx context.Context, variantID uuid.UUID) ([]domain.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, url, kind, is_primary, sort_order, created_at
		FROM product_images
		WHERE variant_id = $1
		ORDER BY sort_order ASC
	`, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variant images: %w", err)
	}
	defer rows.Close()

	images := []domain.ProductImage{}
	for rows.Next() {
		img := domain.ProductImage{}
		err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Kind, &img.Primary, &img.SortOrder, &img.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant image: %w", err)
		}
		images = append(images, img)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant images: %w", err)
	}

	return images, nil
}
