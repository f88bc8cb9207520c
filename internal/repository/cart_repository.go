package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ehsaas-jewels/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Cart TTLs: guest carts expire, user carts are kept until checkout or
// explicit clearing.
const (
	guestCartTTL = 7 * 24 * time.Hour
	userCartTTL  = 30 * 24 * time.Hour
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	Get(ctx context.Context, key string) (*domain.Cart, error)
	Save(ctx context.Context, key string, cart *domain.Cart) error
	Delete(ctx context.Context, key string) error
}

type cartRepository struct {
	client *redis.Client
}

// NewCartRepository creates a Redis-backed cart repository
func NewCartRepository(client *redis.Client) CartRepository {
	return &cartRepository{client: client}
}

// UserCartKey returns the cart key for a logged-in user
func UserCartKey(userID string) string {
	return "cart:user:" + userID
}

// GuestCartKey returns the cart key for a guest cart token
func GuestCartKey(token string) string {
	return "cart:guest:" + token
}

// Get loads a cart; a missing key yields an empty cart rather than an error
func (r *cartRepository) Get(ctx context.Context, key string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &domain.Cart{}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart := &domain.Cart{}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	return cart, nil
}

// Save stores the cart as JSON with a TTL appropriate to its owner
func (r *cartRepository) Save(ctx context.Context, key string, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	ttl := userCartTTL
	if strings.HasPrefix(key, "cart:guest:") {
		ttl = guestCartTTL
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

// Delete removes a cart
func (r *cartRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
