// Package cartapi serves the storefront cart contract. It exists so the
// pricing engine and cart client can be exercised end to end against a real
// HTTP surface during development and integration tests.
package cartapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solbruket/storefront-engine/internal/money"
)

// Cart is the stored cart document. The JSON field names follow the platform
// contract so clients can decode snapshots directly.
type Cart struct {
	ItemCount  int               `json:"item_count"`
	TotalPrice money.Money       `json:"total_price"`
	Items      []Line            `json:"items"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Line is one cart line.
type Line struct {
	Key            string            `json:"key"`
	VariantID      string            `json:"variant_id"`
	Image          string            `json:"image"`
	Title          string            `json:"title"`
	ProductTitle   string            `json:"product_title"`
	VariantTitle   string            `json:"variant_title"`
	UnitPrice      money.Money       `json:"price"`
	FinalLinePrice money.Money       `json:"final_line_price"`
	Quantity       int               `json:"quantity"`
	Properties     map[string]string `json:"properties,omitempty"`
}

// Recalculate refreshes the derived totals after any mutation.
func (c *Cart) Recalculate() {
	count := 0
	var total money.Money
	for i := range c.Items {
		line := &c.Items[i]
		line.FinalLinePrice = line.UnitPrice * money.Money(line.Quantity)
		count += line.Quantity
		total += line.FinalLinePrice
	}
	c.ItemCount = count
	c.TotalPrice = total
}

// Store persists carts in Redis as JSON documents keyed by session token.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

const cartKeyPrefix = "cartsim:cart:"

// Load returns the cart for the token, or a fresh empty cart when none exists.
func (s Store) Load(ctx context.Context, token string) (*Cart, error) {
	raw, err := s.Client.Get(ctx, cartKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{Items: []Line{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cartapi: load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("cartapi: decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []Line{}
	}
	return &cart, nil
}

// Save writes the cart back with the configured TTL.
func (s Store) Save(ctx context.Context, token string, cart *Cart) error {
	cart.Recalculate()
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("cartapi: encode cart: %w", err)
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := s.Client.Set(ctx, cartKeyPrefix+token, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cartapi: save cart: %w", err)
	}
	return nil
}
