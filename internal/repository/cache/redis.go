package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

const productListKey = "catalog:products"

// RedisCache implements caching for catalog responses and rating summaries
type RedisCache struct {
	client           *redis.Client
	productListTTL   time.Duration
	productTTL       time.Duration
	ratingSummaryTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, productListTTL, productTTL, ratingSummaryTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:           client,
		productListTTL:   productListTTL,
		productTTL:       productTTL,
		ratingSummaryTTL: ratingSummaryTTL,
	}
}

// Catalog cache keys and methods

func (c *RedisCache) productKey(productID string) string {
	return fmt.Sprintf("catalog:product:%s", productID)
}

// GetProductList retrieves the cached product collection
func (c *RedisCache) GetProductList(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.getJSON(ctx, productListKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SetProductList stores the product collection
func (c *RedisCache) SetProductList(ctx context.Context, products []domain.Product) error {
	return c.setJSON(ctx, productListKey, products, c.productListTTL)
}

// GetProduct retrieves a cached product
func (c *RedisCache) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, c.productKey(productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// SetProduct stores a product
func (c *RedisCache) SetProduct(ctx context.Context, product *domain.Product) error {
	return c.setJSON(ctx, c.productKey(product.ID), product, c.productTTL)
}

// Rating summary cache keys and methods

func (c *RedisCache) ratingSummaryKey(productID string) string {
	return fmt.Sprintf("product:%s:rating", productID)
}

// GetRatingSummary retrieves a cached review summary
func (c *RedisCache) GetRatingSummary(ctx context.Context, productID string) (domain.ReviewSummary, error) {
	var summary domain.ReviewSummary
	err := c.getJSON(ctx, c.ratingSummaryKey(productID), &summary)
	return summary, err
}

// SetRatingSummary stores a review summary
func (c *RedisCache) SetRatingSummary(ctx context.Context, productID string, summary domain.ReviewSummary) error {
	return c.setJSON(ctx, c.ratingSummaryKey(productID), summary, c.ratingSummaryTTL)
}

// InvalidateRatingSummary removes a review summary from cache
func (c *RedisCache) InvalidateRatingSummary(ctx context.Context, productID string) error {
	return c.client.Del(ctx, c.ratingSummaryKey(productID)).Err()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, out any) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(val, out)
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}
