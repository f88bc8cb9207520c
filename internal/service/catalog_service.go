package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ehsaas-jewels/internal/domain"
	"ehsaas-jewels/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownOption      = errors.New("variant references an option not declared for the product")
	ErrUnknownOptionValue = errors.New("variant references a value not declared for its option")
)

// ProductView is a storefront product page: the product, its variant
// catalog and the quote for the caller's current selection.
type ProductView struct {
	Product *domain.Product       `json:"product"`
	Catalog domain.VariantCatalog `json:"catalog"`
	// Variant is the resolved variant for the requested selection, nil
	// when the product has no variants.
	Variant *domain.Variant `json:"variant,omitempty"`
	Quote   domain.Quote    `json:"quote"`
	// SelectionCleared tells the client to reset its selection state
	// (partial or inconsistent selection fell back to the base variant).
	SelectionCleared bool `json:"selection_cleared"`
	// GalleryImage is the image to jump the gallery to, set when the
	// resolved variant carries its own primary image.
	GalleryImage *domain.ProductImage `json:"gallery_image,omitempty"`
}

// CatalogService defines catalog business logic for storefront and admin
type CatalogService interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, collection string, activeOnly bool, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	AddProductImage(ctx context.Context, image *domain.ProductImage) error
	DeleteProductImage(ctx context.Context, imageID uuid.UUID) error
	ReplaceProductSpecs(ctx context.Context, productID uuid.UUID, specs []domain.ProductSpec) error

	CreateVariantOption(ctx context.Context, option *domain.VariantOption) error
	CreateVariant(ctx context.Context, variant *domain.Variant) error
	UpdateVariant(ctx context.Context, variant *domain.Variant) error
	DeleteVariant(ctx context.Context, variantID uuid.UUID) error

	LoadCatalog(ctx context.Context, productID uuid.UUID) domain.VariantCatalog
	View(ctx context.Context, productID uuid.UUID, selection domain.Selection) (*ProductView, error)
}

type catalogService struct {
	products repository.ProductRepository
	variants repository.VariantRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	products repository.ProductRepository,
	variants repository.VariantRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products: products,
		variants: variants,
		logger:   logger,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now()
	return s.products.Update(ctx, product)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, collection string, activeOnly bool, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	return s.products.List(ctx, collection, activeOnly, page, pageSize, sortBy, sortOrder)
}

func (s *catalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return s.products.Search(ctx, query, page, pageSize)
}

func (s *catalogService) AddProductImage(ctx context.Context, image *domain.ProductImage) error {
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	image.CreatedAt = time.Now()
	return s.products.AddImage(ctx, image)
}

func (s *catalogService) DeleteProductImage(ctx context.Context, imageID uuid.UUID) error {
	return s.products.DeleteImage(ctx, imageID)
}

func (s *catalogService) ReplaceProductSpecs(ctx context.Context, productID uuid.UUID, specs []domain.ProductSpec) error {
	for i := range specs {
		if specs[i].ID == uuid.Nil {
			specs[i].ID = uuid.New()
		}
		specs[i].ProductID = productID
	}
	return s.products.ReplaceSpecs(ctx, productID, specs)
}

func (s *catalogService) CreateVariantOption(ctx context.Context, option *domain.VariantOption) error {
	if option.ID == uuid.Nil {
		option.ID = uuid.New()
	}
	option.CreatedAt = time.Now()
	for i := range option.Values {
		if option.Values[i].ID == uuid.Nil {
			option.Values[i].ID = uuid.New()
		}
		option.Values[i].OptionID = option.ID
	}
	return s.variants.CreateOption(ctx, option)
}

// CreateVariant validates the variant's option pairs against the
// product's declared options before persisting. Combination uniqueness
// (including the single base variant) is enforced by the repository.
func (s *catalogService) CreateVariant(ctx context.Context, variant *domain.Variant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	variant.CreatedAt = time.Now()

	if len(variant.Options) > 0 {
		options, err := s.variants.ListOptions(ctx, variant.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load options for validation: %w", err)
		}
		declared := map[string]map[string]bool{}
		for _, opt := range options {
			values := map[string]bool{}
			for _, v := range opt.Values {
				values[v.Value] = true
			}
			declared[opt.Name] = values
		}
		for _, pair := range variant.Options {
			values, ok := declared[pair.OptionName]
			if !ok {
				return ErrUnknownOption
			}
			if !values[pair.Value] {
				return ErrUnknownOptionValue
			}
		}
	}

	for i := range variant.Images {
		if variant.Images[i].ID == uuid.Nil {
			variant.Images[i].ID = uuid.New()
		}
		variant.Images[i].ProductID = variant.ProductID
		if variant.Images[i].CreatedAt.IsZero() {
			variant.Images[i].CreatedAt = time.Now()
		}
	}

	return s.variants.CreateVariant(ctx, variant)
}

func (s *catalogService) UpdateVariant(ctx context.Context, variant *domain.Variant) error {
	return s.variants.UpdateVariant(ctx, variant)
}

func (s *catalogService) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	return s.variants.DeleteVariant(ctx, variantID)
}

// LoadCatalog fetches a product's variant options and variants. Fetch
// failures degrade to an empty catalog: the storefront falls back to the
// base product fields instead of surfacing an error.
func (s *catalogService) LoadCatalog(ctx context.Context, productID uuid.UUID) domain.VariantCatalog {
	catalog := domain.VariantCatalog{ProductID: productID}

	options, err := s.variants.ListOptions(ctx, productID)
	if err != nil {
		s.logger.Warn("Failed to load variant options, treating product as variant-free",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return catalog
	}

	variants, err := s.variants.ListVariants(ctx, productID)
	if err != nil {
		s.logger.Warn("Failed to load variants, treating product as variant-free",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return catalog
	}

	catalog.Options = options
	catalog.Variants = variants
	return catalog
}

// View assembles the product page: the product record, its variant
// catalog, the variant resolved from the caller's selection and the
// resulting price quote.
func (s *catalogService) View(ctx context.Context, productID uuid.UUID, selection domain.Selection) (*ProductView, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	view := &ProductView{Product: product}
	view.Catalog = s.LoadCatalog(ctx, productID)

	if view.Catalog.HasVariants() {
		res := view.Catalog.Resolve(selection)
		view.Variant = res.Variant
		view.SelectionCleared = res.ClearedSelection
	}

	view.Quote = domain.ComputeQuote(product, view.Variant)

	if view.Variant != nil {
		if img, ok := view.Variant.PrimaryImage(); ok {
			view.GalleryImage = &img
		}
	}

	return view, nil
}
