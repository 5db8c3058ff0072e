package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	featuredProductsKey = "cache:featured-products"
	featuredProductsTTL = 10 * time.Minute

	cartKeyPrefix = "cart:"
	cartTTL       = 14 * 24 * time.Hour
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetFeaturedProducts reads the cached featured-products view. Returns
// redis.Nil-wrapped miss as (nil, false, nil).
func (c *Client) GetFeaturedProducts(ctx context.Context, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, featuredProductsKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get featured products cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode featured products cache: %w", err)
	}
	return true, nil
}

// SetFeaturedProducts stores the featured-products view with a TTL.
func (c *Client) SetFeaturedProducts(ctx context.Context, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode featured products cache: %w", err)
	}
	return c.rdb.Set(ctx, featuredProductsKey, data, featuredProductsTTL).Err()
}

// InvalidateFeaturedProducts drops the cached view. Called after any
// stock-affecting commit; stock changes may affect displayed availability.
func (c *Client) InvalidateFeaturedProducts(ctx context.Context) error {
	return c.rdb.Del(ctx, featuredProductsKey).Err()
}

// GetCart loads a persisted cart. A missing key yields (false, nil).
func (c *Client) GetCart(ctx context.Context, cartID string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, cartKeyPrefix+cartID).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cart %s: %w", cartID, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cart %s: %w", cartID, err)
	}
	return true, nil
}

// SetCart persists a cart. The read-only resolver writes healed carts back
// through here after dropping or clamping lines.
func (c *Client) SetCart(ctx context.Context, cartID string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cartID, err)
	}
	return c.rdb.Set(ctx, cartKeyPrefix+cartID, data, cartTTL).Err()
}

// DeleteCart removes a persisted cart, used after a successful checkout.
func (c *Client) DeleteCart(ctx context.Context, cartID string) error {
	return c.rdb.Del(ctx, cartKeyPrefix+cartID).Err()
}
