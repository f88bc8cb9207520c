package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ehsaas-jewels/internal/domain"
	"ehsaas-jewels/internal/middleware"
	"ehsaas-jewels/internal/repository"
	"ehsaas-jewels/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the admin payload for creating or updating a product
type ProductRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	Collection    string  `json:"collection" validate:"required"`
	Price         string  `json:"price" validate:"required"`
	SalePrice     *string `json:"sale_price"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	Active        bool    `json:"active"`
}

// ImageRequest is the admin payload for adding a gallery entry
type ImageRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Kind    string `json:"kind" validate:"required,oneof=image video"`
	Primary bool   `json:"primary"`
}

// SpecRequest is one specification line
type SpecRequest struct {
	Label string `json:"label" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// OptionRequest declares an option axis with its values
type OptionRequest struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"display_name"`
	Values      []struct {
		Value        string `json:"value" validate:"required"`
		DisplayValue string `json:"display_value"`
	} `json:"values" validate:"required,min=1,dive"`
}

// VariantRequest creates a concrete variant
type VariantRequest struct {
	DisplayName   string `json:"display_name"`
	SKU           string `json:"sku"`
	Price         string `json:"price" validate:"required"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0"`
	Options       []struct {
		OptionName string `json:"option_name" validate:"required"`
		Value      string `json:"value" validate:"required"`
	} `json:"options" validate:"dive"`
	Images []ImageRequest `json:"images" validate:"dive"`
}

// ProductListResponse is a paginated product listing
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ProductHandler handles HTTP requests for the catalog
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the public storefront routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.View)
	})
}

// RegisterAdminRoutes registers catalog management routes. The caller
// mounts them behind auth and staff checks.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/images", h.AddImage)
		r.Delete("/{id}/images/{imageID}", h.DeleteImage)
		r.Put("/{id}/specs", h.ReplaceSpecs)
		r.Post("/{id}/options", h.CreateOption)
		r.Post("/{id}/variants", h.CreateVariant)
		r.Delete("/{id}/variants/{variantID}", h.DeleteVariant)
	})
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// List returns active products, optionally filtered by collection
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	collection := r.URL.Query().Get("collection")

	sortBy := r.URL.Query().Get("sort_by")
	sortOrder := repository.SortOrderDesc
	if r.URL.Query().Get("sort_order") == "asc" {
		sortOrder = repository.SortOrderAsc
	}

	products, total, err := h.catalog.ListProducts(r.Context(), collection, true, page, pageSize, sortBy, sortOrder)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Search returns active products matching a free-text query
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing search query")
		return
	}

	page, pageSize := parsePagination(r)

	products, total, err := h.catalog.SearchProducts(r.Context(), query, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to search products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// selectionFromQuery reads option selections from repeated "sel" query
// parameters formatted as "name:value".
func selectionFromQuery(r *http.Request) domain.Selection {
	values := r.URL.Query()["sel"]
	if len(values) == 0 {
		return nil
	}
	sel := domain.Selection{}
	for _, raw := range values {
		for i := 0; i < len(raw); i++ {
			if raw[i] == ':' {
				sel[raw[:i]] = raw[i+1:]
				break
			}
		}
	}
	return sel
}

// View returns the product page: product, variant catalog and the quote
// for the requested selection.
func (h *ProductHandler) View(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	view, err := h.catalog.View(r.Context(), productID, selectionFromQuery(r))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to build product view", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return nil, false
	}

	product := &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Collection:    req.Collection,
		Price:         price,
		StockQuantity: req.StockQuantity,
		Active:        req.Active,
	}

	if req.SalePrice != nil {
		salePrice, err := decimal.NewFromString(*req.SalePrice)
		if err != nil || salePrice.IsNegative() {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid sale price")
			return nil, false
		}
		product.SalePrice = decimal.NullDecimal{Decimal: salePrice, Valid: true}
	}

	return product, true
}

// Create adds a product to the catalog
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	if err := h.catalog.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update replaces a product's fields
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = productID

	if err := h.catalog.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to update product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product from the catalog
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// AddImage appends a gallery entry; its slot comes after the existing ones
func (h *ProductHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ImageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image := &domain.ProductImage{
		ProductID: productID,
		URL:       req.URL,
		Kind:      domain.MediaKind(req.Kind),
		Primary:   req.Primary,
	}

	if err := h.catalog.AddProductImage(r.Context(), image); err != nil {
		h.logger.Error("Failed to add product image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, image)
}

// DeleteImage removes a gallery entry
func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(chi.URLParam(r, "imageID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid image ID")
		return
	}

	if err := h.catalog.DeleteProductImage(r.Context(), imageID); err != nil {
		h.logger.Error("Failed to delete product image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "image deleted"})
}

// ReplaceSpecs replaces a product's specification lines
func (h *ProductHandler) ReplaceSpecs(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var reqs []SpecRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	specs := make([]domain.ProductSpec, len(reqs))
	for i, s := range reqs {
		if err := middleware.ValidateRequest(s); err != nil {
			middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
			return
		}
		specs[i] = domain.ProductSpec{Label: s.Label, Value: s.Value, SortOrder: i}
	}

	if err := h.catalog.ReplaceProductSpecs(r.Context(), productID, specs); err != nil {
		h.logger.Error("Failed to replace product specs", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to replace specs")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, specs)
}

// CreateOption declares an option axis for a product
func (h *ProductHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req OptionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	option := &domain.VariantOption{
		ProductID:   productID,
		Name:        req.Name,
		DisplayName: req.DisplayName,
	}
	for i, v := range req.Values {
		option.Values = append(option.Values, domain.VariantValue{
			Value:        v.Value,
			DisplayValue: v.DisplayValue,
			SortOrder:    i,
		})
	}

	if err := h.catalog.CreateVariantOption(r.Context(), option); err != nil {
		if errors.Is(err, repository.ErrDuplicateOptionName) {
			middleware.RespondWithError(w, http.StatusConflict, "option with this name already exists")
			return
		}
		h.logger.Error("Failed to create variant option", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create option")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, option)
}

// CreateVariant adds a concrete variant to a product
func (h *ProductHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req VariantRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return
	}

	variant := &domain.Variant{
		ProductID:     productID,
		DisplayName:   req.DisplayName,
		SKU:           req.SKU,
		Price:         price,
		StockQuantity: req.StockQuantity,
	}
	for _, p := range req.Options {
		variant.Options = append(variant.Options, domain.OptionPair{
			OptionName: p.OptionName,
			Value:      p.Value,
		})
	}
	for _, img := range req.Images {
		variant.Images = append(variant.Images, domain.ProductImage{
			URL:     img.URL,
			Kind:    domain.MediaKind(img.Kind),
			Primary: img.Primary,
		})
	}

	if err := h.catalog.CreateVariant(r.Context(), variant); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownOption), errors.Is(err, service.ErrUnknownOptionValue):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrDuplicateCombination):
			middleware.RespondWithError(w, http.StatusConflict, "variant with this option combination already exists")
		case errors.Is(err, repository.ErrDuplicateBaseVariant):
			middleware.RespondWithError(w, http.StatusConflict, "product already has a base variant")
		default:
			h.logger.Error("Failed to create variant", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create variant")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, variant)
}

// DeleteVariant removes a variant
func (h *ProductHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid variant ID")
		return
	}

	if err := h.catalog.DeleteVariant(r.Context(), variantID); err != nil {
		if errors.Is(err, repository.ErrVariantNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "variant not found")
			return
		}
		h.logger.Error("Failed to delete variant", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete variant")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "variant deleted"})
}
