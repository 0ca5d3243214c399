package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// AggregateCache stores built product aggregates in redis. Entries are
// invalidated on every write to the product and expire on their own as a
// safety net against missed invalidations.
type AggregateCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewAggregateCache constructs the cache. A zero ttl defaults to five
// minutes.
func NewAggregateCache(client *redis.Client, logger *slog.Logger, ttl time.Duration) *AggregateCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AggregateCache{client: client, logger: logger, ttl: ttl}
}

func aggregateKey(productID int64) string {
	return fmt.Sprintf("catalog:aggregate:%d", productID)
}

// Get returns the cached aggregate when present. Without a client every
// lookup is a miss.
func (c *AggregateCache) Get(ctx context.Context, productID int64) (ProductResponse, bool) {
	if c == nil || c.client == nil {
		return ProductResponse{}, false
	}
	data, err := c.client.Get(ctx, aggregateKey(productID)).Bytes()
	if err != nil {
		return ProductResponse{}, false
	}
	var resp ProductResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("decode cached aggregate", slog.Int64("product_id", productID), slog.Any("error", err))
		return ProductResponse{}, false
	}
	return resp, true
}

// Set stores an aggregate. Failures are logged, never surfaced.
func (c *AggregateCache) Set(ctx context.Context, productID int64, resp ProductResponse) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("encode aggregate", slog.Int64("product_id", productID), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, aggregateKey(productID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("store aggregate", slog.Int64("product_id", productID), slog.Any("error", err))
	}
}

// Invalidate drops the cached aggregate of one product.
func (c *AggregateCache) Invalidate(ctx context.Context, productID int64) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, aggregateKey(productID)).Err(); err != nil {
		c.logger.Warn("invalidate aggregate", slog.Int64("product_id", productID), slog.Any("error", err))
	}
}
