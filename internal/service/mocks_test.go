package service

import (
	"context"
	"sync"

	"ehsaas-jewels/internal/domain"
	"ehsaas-jewels/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role, permissions []string) error {
	for _, user := range m.users {
		if user.ID == id {
			user.Role = role
			user.Permissions = permissions
			return nil
		}
	}
	return repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	for _, token := range m.tokens {
		if token.UserID.String() == userID {
			token.Revoked = true
		}
	}
	return nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) List(ctx context.Context, collection string, activeOnly bool, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	var out []*domain.Product
	for _, p := range m.products {
		if collection != "" && p.Collection != collection {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	var out []*domain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockProductRepository) AddImage(ctx context.Context, image *domain.ProductImage) error {
	product, exists := m.products[image.ProductID]
	if !exists {
		return repository.ErrProductNotFound
	}
	product.Images = append(product.Images, *image)
	return nil
}

func (m *mockProductRepository) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	for _, p := range m.products {
		for i, img := range p.Images {
			if img.ID == imageID {
				p.Images = append(p.Images[:i], p.Images[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockProductRepository) ReplaceSpecs(ctx context.Context, productID uuid.UUID, specs []domain.ProductSpec) error {
	product, exists := m.products[productID]
	if !exists {
		return repository.ErrProductNotFound
	}
	product.Specs = specs
	return nil
}

type mockVariantRepository struct {
	options  map[uuid.UUID][]domain.VariantOption
	variants map[uuid.UUID][]domain.Variant

	// failLoads makes every read return an error, simulating a broken
	// variant store behind a healthy product store.
	failLoads bool
	loadErr   error
}

func newMockVariantRepository() *mockVariantRepository {
	return &mockVariantRepository{
		options:  make(map[uuid.UUID][]domain.VariantOption),
		variants: make(map[uuid.UUID][]domain.Variant),
	}
}

func (m *mockVariantRepository) CreateOption(ctx context.Context, option *domain.VariantOption) error {
	for _, existing := range m.options[option.ProductID] {
		if existing.Name == option.Name {
			return repository.ErrDuplicateOptionName
		}
	}
	m.options[option.ProductID] = append(m.options[option.ProductID], *option)
	return nil
}

func (m *mockVariantRepository) DeleteOption(ctx context.Context, optionID uuid.UUID) error {
	for productID, opts := range m.options {
		for i, opt := range opts {
			if opt.ID == optionID {
				m.options[productID] = append(opts[:i], opts[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrVariantOptionNotFound
}

func (m *mockVariantRepository) ListOptions(ctx context.Context, productID uuid.UUID) ([]domain.VariantOption, error) {
	if m.failLoads {
		return nil, m.loadErr
	}
	return m.options[productID], nil
}

func (m *mockVariantRepository) CreateVariant(ctx context.Context, variant *domain.Variant) error {
	key := variant.CombinationKey()
	for i := range m.variants[variant.ProductID] {
		if m.variants[variant.ProductID][i].CombinationKey() == key {
			if key == "" {
				return repository.ErrDuplicateBaseVariant
			}
			return repository.ErrDuplicateCombination
		}
	}
	m.variants[variant.ProductID] = append(m.variants[variant.ProductID], *variant)
	return nil
}

func (m *mockVariantRepository) UpdateVariant(ctx context.Context, variant *domain.Variant) error {
	for i := range m.variants[variant.ProductID] {
		if m.variants[variant.ProductID][i].ID == variant.ID {
			m.variants[variant.ProductID][i] = *variant
			return nil
		}
	}
	return repository.ErrVariantNotFound
}

func (m *mockVariantRepository) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	for productID, variants := range m.variants {
		for i, v := range variants {
			if v.ID == variantID {
				m.variants[productID] = append(variants[:i], variants[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrVariantNotFound
}

func (m *mockVariantRepository) ListVariants(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	if m.failLoads {
		return nil, m.loadErr
	}
	return m.variants[productID], nil
}

type mockCartRepository struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		carts: make(map[string]*domain.Cart),
	}
}

func (m *mockCartRepository) Get(ctx context.Context, key string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, exists := m.carts[key]
	if !exists {
		return &domain.Cart{}, nil
	}
	copied := *cart
	copied.Items = append([]domain.CartLineItem(nil), cart.Items...)
	return &copied, nil
}

func (m *mockCartRepository) Save(ctx context.Context, key string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[key] = cart
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, key)
	return nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[uuid.UUID]*domain.Order),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *mockOrderRepository) List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}
